package rrdata

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/deep-soft/toluol/internal/dns/domain"
)

var (
	// ErrTruncated is returned when the RDATA ends inside a field.
	ErrTruncated = errors.New("truncated rdata")
	// ErrLengthMismatch is returned when the schema consumes fewer octets
	// than rdlength announced.
	ErrLengthMismatch = errors.New("rdata length mismatch")
)

// Decode parses the RDATA of one record. msg is the complete DNS message (so
// compressed names inside the RDATA can follow their pointers), off is the
// position where the RDATA starts, and rdlength is the announced length. The
// decoder must consume exactly rdlength octets of the RDATA window.
func Decode(t domain.RRType, msg []byte, off int, rdlength int) (Value, error) {
	if off+rdlength > len(msg) {
		return Value{}, fmt.Errorf("rdata for %s: %w", t, ErrTruncated)
	}
	schema := Schema(t)
	if schema == nil {
		raw := make([]byte, rdlength)
		copy(raw, msg[off:off+rdlength])
		return Value{Type: t, Raw: raw}, nil
	}

	d := decoder{msg: msg, pos: off, limit: off + rdlength}
	fields := make([]Field, 0, len(schema))
	for _, kind := range schema {
		f, err := d.field(kind)
		if err != nil {
			return Value{}, fmt.Errorf("rdata for %s: %w", t, err)
		}
		fields = append(fields, f)
	}
	if d.pos != d.limit {
		return Value{}, fmt.Errorf("rdata for %s: consumed %d of %d octets: %w",
			t, d.pos-off, rdlength, ErrLengthMismatch)
	}
	if t == domain.RRTypeLOC && fields[0].Num != 0 {
		return Value{}, fmt.Errorf("rdata for %s: unsupported version %d", t, fields[0].Num)
	}
	return Value{Type: t, Fields: fields}, nil
}

type decoder struct {
	msg   []byte
	pos   int
	limit int
}

func (d *decoder) remaining() int {
	return d.limit - d.pos
}

func (d *decoder) take(n int) ([]byte, error) {
	if d.remaining() < n {
		return nil, ErrTruncated
	}
	b := d.msg[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) field(kind FieldKind) (Field, error) {
	f := Field{Kind: kind}
	switch kind {
	case FieldIP4:
		b, err := d.take(4)
		if err != nil {
			return f, err
		}
		f.Data = append([]byte(nil), b...)
	case FieldIP6:
		b, err := d.take(16)
		if err != nil {
			return f, err
		}
		f.Data = append([]byte(nil), b...)
	case FieldU8:
		b, err := d.take(1)
		if err != nil {
			return f, err
		}
		f.Num = uint32(b[0])
	case FieldU16, FieldType:
		b, err := d.take(2)
		if err != nil {
			return f, err
		}
		f.Num = uint32(binary.BigEndian.Uint16(b))
	case FieldU32, FieldTime:
		b, err := d.take(4)
		if err != nil {
			return f, err
		}
		f.Num = binary.BigEndian.Uint32(b)
	case FieldName:
		name, next, err := domain.DecodeName(d.msg, d.pos)
		if err != nil {
			return f, err
		}
		if next > d.limit {
			return f, ErrTruncated
		}
		f.Name = name
		d.pos = next
	case FieldString:
		s, err := d.characterString()
		if err != nil {
			return f, err
		}
		f.Str = s
	case FieldText:
		// At least one character-string, then as many as the RDATA holds.
		s, err := d.characterString()
		if err != nil {
			return f, err
		}
		f.Strs = append(f.Strs, s)
		for d.remaining() > 0 {
			s, err := d.characterString()
			if err != nil {
				return f, err
			}
			f.Strs = append(f.Strs, s)
		}
	case FieldBase64, FieldHex:
		b, err := d.take(d.remaining())
		if err != nil {
			return f, err
		}
		f.Data = append([]byte(nil), b...)
	case FieldSalt, FieldHash:
		lb, err := d.take(1)
		if err != nil {
			return f, err
		}
		b, err := d.take(int(lb[0]))
		if err != nil {
			return f, err
		}
		f.Data = append([]byte(nil), b...)
	case FieldTypes:
		types, err := decodeTypeBitmap(d)
		if err != nil {
			return f, err
		}
		f.Types = types
	case FieldOptions:
		for d.remaining() > 0 {
			hdr, err := d.take(4)
			if err != nil {
				return f, err
			}
			code := binary.BigEndian.Uint16(hdr[0:2])
			length := int(binary.BigEndian.Uint16(hdr[2:4]))
			data, err := d.take(length)
			if err != nil {
				return f, err
			}
			f.Options = append(f.Options, domain.EDNSOption{
				Code: code,
				Data: append([]byte(nil), data...),
			})
		}
	case FieldProperty:
		lb, err := d.take(1)
		if err != nil {
			return f, err
		}
		tag, err := d.take(int(lb[0]))
		if err != nil {
			return f, err
		}
		value, err := d.take(d.remaining())
		if err != nil {
			return f, err
		}
		f.Str = string(tag)
		f.Data = append([]byte(nil), value...)
	default:
		return f, fmt.Errorf("unhandled field kind %d", kind)
	}
	return f, nil
}

func (d *decoder) characterString() (string, error) {
	lb, err := d.take(1)
	if err != nil {
		return "", err
	}
	b, err := d.take(int(lb[0]))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
