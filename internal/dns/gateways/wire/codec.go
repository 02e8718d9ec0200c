// Package wire encodes and decodes complete DNS messages: the fixed header,
// the four counted sections, and the OPT pseudo-record (RFC 1035, RFC 6891).
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/deep-soft/toluol/internal/dns/common/rrdata"
	"github.com/deep-soft/toluol/internal/dns/domain"
)

const headerLength = 12

var (
	// ErrShortMessage is returned when a buffer ends before the structure it
	// should hold is complete.
	ErrShortMessage = errors.New("short message")
	// ErrDuplicateOPT is returned when a decoded message carries more than one
	// OPT pseudo-record, and when a message to encode holds an OPT record in
	// one of its sections (the encoder builds the OPT record from EDNS only).
	ErrDuplicateOPT = errors.New("more than one OPT record")
	// ErrOPTName is returned when an OPT record's owner is not the root.
	ErrOPTName = errors.New("OPT record owner is not the root")
)

// EncodeMessage serializes a message. Names are emitted uncompressed; the
// OPT pseudo-record, when present, goes last in the additional section.
func EncodeMessage(m *domain.Message) ([]byte, error) {
	buf := make([]byte, 0, 512)
	buf = appendHeader(buf, m)

	var err error
	for _, q := range m.Questions {
		buf, err = q.Name.AppendWire(buf)
		if err != nil {
			return nil, fmt.Errorf("encoding question: %w", err)
		}
		buf = binary.BigEndian.AppendUint16(buf, uint16(q.Type))
		buf = binary.BigEndian.AppendUint16(buf, uint16(q.Class))
	}

	for _, section := range [][]domain.ResourceRecord{m.Answers, m.Authority, m.Additional} {
		for _, rr := range section {
			if rr.Type == domain.RRTypeOPT {
				return nil, ErrDuplicateOPT
			}
			buf, err = appendRecord(buf, rr)
			if err != nil {
				return nil, err
			}
		}
	}

	if m.EDNS != nil {
		buf, err = appendOPT(buf, m.EDNS)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendHeader(buf []byte, m *domain.Message) []byte {
	h := m.Header
	var word uint16
	if h.QR {
		word |= 1 << 15
	}
	word |= uint16(h.Opcode&0x0F) << 11
	if h.Flags.AA {
		word |= 1 << 10
	}
	if h.Flags.TC {
		word |= 1 << 9
	}
	if h.Flags.RD {
		word |= 1 << 8
	}
	if h.Flags.RA {
		word |= 1 << 7
	}
	if h.Flags.AD {
		word |= 1 << 5
	}
	if h.Flags.CD {
		word |= 1 << 4
	}
	word |= uint16(h.RCode) & 0x0F

	arcount := len(m.Additional)
	if m.EDNS != nil {
		arcount++
	}

	buf = binary.BigEndian.AppendUint16(buf, h.ID)
	buf = binary.BigEndian.AppendUint16(buf, word)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(m.Questions)))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(m.Answers)))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(m.Authority)))
	buf = binary.BigEndian.AppendUint16(buf, uint16(arcount))
	return buf
}

func appendRecord(buf []byte, rr domain.ResourceRecord) ([]byte, error) {
	buf, err := rr.Name.AppendWire(buf)
	if err != nil {
		return nil, fmt.Errorf("encoding record %s: %w", rr.Name, err)
	}
	if len(rr.Data) > 0xFFFF {
		return nil, fmt.Errorf("encoding record %s: rdata of %d octets", rr.Name, len(rr.Data))
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(rr.Type))
	buf = binary.BigEndian.AppendUint16(buf, uint16(rr.Class))
	buf = binary.BigEndian.AppendUint32(buf, rr.TTL)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(rr.Data)))
	return append(buf, rr.Data...), nil
}

func appendOPT(buf []byte, e *domain.EDNS) ([]byte, error) {
	var rdata []byte
	for _, opt := range e.Options {
		if len(opt.Data) > 0xFFFF {
			return nil, fmt.Errorf("encoding OPT option %d: payload of %d octets", opt.Code, len(opt.Data))
		}
		rdata = binary.BigEndian.AppendUint16(rdata, opt.Code)
		rdata = binary.BigEndian.AppendUint16(rdata, uint16(len(opt.Data)))
		rdata = append(rdata, opt.Data...)
	}

	var ttl uint32
	ttl |= uint32(e.ExtRCode) << 24
	ttl |= uint32(e.Version) << 16
	if e.Do {
		ttl |= 1 << 15
	}

	buf = append(buf, 0) // root owner
	buf = binary.BigEndian.AppendUint16(buf, uint16(domain.RRTypeOPT))
	buf = binary.BigEndian.AppendUint16(buf, e.PayloadSize)
	buf = binary.BigEndian.AppendUint32(buf, ttl)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(rdata)))
	return append(buf, rdata...), nil
}

// DecodeHeader parses just the fixed header, leaving the sections untouched.
// The query service uses this to inspect the TC bit before committing to a
// full decode of a possibly truncated reply.
func DecodeHeader(data []byte) (domain.Header, error) {
	if len(data) < headerLength {
		return domain.Header{}, fmt.Errorf("decoding header: %w", ErrShortMessage)
	}
	word := binary.BigEndian.Uint16(data[2:4])
	return domain.Header{
		ID:     binary.BigEndian.Uint16(data[0:2]),
		QR:     word&(1<<15) != 0,
		Opcode: domain.Opcode(word >> 11 & 0x0F),
		Flags: domain.HeaderFlags{
			AA: word&(1<<10) != 0,
			TC: word&(1<<9) != 0,
			RD: word&(1<<8) != 0,
			RA: word&(1<<7) != 0,
			AD: word&(1<<5) != 0,
			CD: word&(1<<4) != 0,
		},
		RCode: domain.RCode(word & 0x0F),
	}, nil
}

// DecodeMessage parses a complete DNS message. Unknown opcodes and rcodes
// decode numerically rather than failing; structural violations (counts that
// overrun the buffer, rdlength mismatches, bad names) abort with an error.
func DecodeMessage(data []byte) (*domain.Message, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	qdcount := int(binary.BigEndian.Uint16(data[4:6]))
	ancount := int(binary.BigEndian.Uint16(data[6:8]))
	nscount := int(binary.BigEndian.Uint16(data[8:10]))
	arcount := int(binary.BigEndian.Uint16(data[10:12]))

	m := &domain.Message{Header: header}
	off := headerLength

	for i := 0; i < qdcount; i++ {
		var q domain.Question
		q, off, err = decodeQuestion(data, off)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		m.Questions = append(m.Questions, q)
	}

	sections := []struct {
		count int
		out   *[]domain.ResourceRecord
		name  string
	}{
		{ancount, &m.Answers, "answer"},
		{nscount, &m.Authority, "authority"},
		{arcount, &m.Additional, "additional"},
	}
	for _, section := range sections {
		for i := 0; i < section.count; i++ {
			var rr domain.ResourceRecord
			var edns *domain.EDNS
			rr, edns, off, err = decodeRecord(data, off)
			if err != nil {
				return nil, fmt.Errorf("%s record %d: %w", section.name, i, err)
			}
			if edns != nil {
				if m.EDNS != nil {
					return nil, ErrDuplicateOPT
				}
				m.EDNS = edns
				continue
			}
			*section.out = append(*section.out, rr)
		}
	}

	if m.EDNS != nil {
		m.Header.RCode = domain.RCode(uint16(m.EDNS.ExtRCode)<<4 | uint16(m.Header.RCode))
	}
	return m, nil
}

func decodeQuestion(data []byte, off int) (domain.Question, int, error) {
	name, off, err := domain.DecodeName(data, off)
	if err != nil {
		return domain.Question{}, 0, err
	}
	if off+4 > len(data) {
		return domain.Question{}, 0, ErrShortMessage
	}
	q := domain.Question{
		Name:  name,
		Type:  domain.RRType(binary.BigEndian.Uint16(data[off : off+2])),
		Class: domain.RRClass(binary.BigEndian.Uint16(data[off+2 : off+4])),
	}
	return q, off + 4, nil
}

func decodeRecord(data []byte, off int) (domain.ResourceRecord, *domain.EDNS, int, error) {
	name, off, err := domain.DecodeName(data, off)
	if err != nil {
		return domain.ResourceRecord{}, nil, 0, err
	}
	if off+10 > len(data) {
		return domain.ResourceRecord{}, nil, 0, ErrShortMessage
	}
	rtype := domain.RRType(binary.BigEndian.Uint16(data[off : off+2]))
	class := binary.BigEndian.Uint16(data[off+2 : off+4])
	ttl := binary.BigEndian.Uint32(data[off+4 : off+8])
	rdlength := int(binary.BigEndian.Uint16(data[off+8 : off+10]))
	off += 10
	if off+rdlength > len(data) {
		return domain.ResourceRecord{}, nil, 0, fmt.Errorf("rdata: %w", ErrShortMessage)
	}

	if rtype == domain.RRTypeOPT {
		edns, err := decodeOPT(name, class, ttl, data, off, rdlength)
		if err != nil {
			return domain.ResourceRecord{}, nil, 0, err
		}
		return domain.ResourceRecord{}, edns, off + rdlength, nil
	}

	value, err := rrdata.Decode(rtype, data, off, rdlength)
	if err != nil {
		return domain.ResourceRecord{}, nil, 0, err
	}
	wireData, err := value.Encode()
	if err != nil {
		return domain.ResourceRecord{}, nil, 0, err
	}
	rr := domain.ResourceRecord{
		Name:  name,
		Type:  rtype,
		Class: domain.RRClass(class),
		TTL:   ttl,
		Data:  wireData,
		Text:  value.String(),
	}
	return rr, nil, off + rdlength, nil
}

func decodeOPT(name domain.Name, class uint16, ttl uint32, data []byte, off, rdlength int) (*domain.EDNS, error) {
	if !name.IsRoot() {
		return nil, ErrOPTName
	}
	value, err := rrdata.Decode(domain.RRTypeOPT, data, off, rdlength)
	if err != nil {
		return nil, err
	}
	return &domain.EDNS{
		PayloadSize: class,
		ExtRCode:    uint8(ttl >> 24),
		Version:     uint8(ttl >> 16),
		Do:          ttl&(1<<15) != 0,
		Options:     value.Fields[0].Options,
	}, nil
}
