package wire

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-soft/toluol/internal/dns/domain"
)

func mustName(t *testing.T, s string) domain.Name {
	t.Helper()
	n, err := domain.ParseName(s)
	require.NoError(t, err)
	return n
}

func testQuery(t *testing.T, qtype domain.RRType, edns *domain.EDNS) *domain.Message {
	t.Helper()
	return &domain.Message{
		Header: domain.Header{
			ID:     0x2A2A,
			Opcode: domain.OpcodeQuery,
			Flags:  domain.HeaderFlags{RD: true, AD: true},
		},
		Questions: []domain.Question{{
			Name:  mustName(t, "example.com"),
			Type:  qtype,
			Class: domain.RRClassIN,
		}},
		EDNS: edns,
	}
}

// TestEncodeQuery_ReferenceCodec cross-checks our encoder against miekg/dns:
// the reference implementation must parse our bytes back into the same query.
func TestEncodeQuery_ReferenceCodec(t *testing.T) {
	msg := testQuery(t, domain.RRTypeAAAA, domain.NewEDNS(domain.EDNSConfig{Do: true}))
	encoded, err := EncodeMessage(msg)
	require.NoError(t, err)

	var ref dns.Msg
	require.NoError(t, ref.Unpack(encoded))

	assert.Equal(t, uint16(0x2A2A), ref.Id)
	assert.False(t, ref.Response)
	assert.True(t, ref.RecursionDesired)
	assert.True(t, ref.AuthenticatedData)
	require.Len(t, ref.Question, 1)
	assert.Equal(t, "example.com.", ref.Question[0].Name)
	assert.Equal(t, dns.TypeAAAA, ref.Question[0].Qtype)
	assert.Equal(t, uint16(dns.ClassINET), ref.Question[0].Qclass)

	opt := ref.IsEdns0()
	require.NotNil(t, opt, "query must carry an OPT record")
	assert.True(t, opt.Do())
	assert.Equal(t, uint16(1232), opt.UDPSize())
}

// TestDecodeReply_ReferenceCodec feeds a reply packed by miekg/dns through
// our decoder and checks the presentation the CLI would print.
func TestDecodeReply_ReferenceCodec(t *testing.T) {
	var ref dns.Msg
	ref.SetQuestion("example.com.", dns.TypeA)
	ref.Id = 0x2A2A
	ref.Response = true
	ref.RecursionAvailable = true
	ref.Answer = []dns.RR{&dns.A{
		Hdr: dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
		A:   net.IPv4(93, 184, 216, 34),
	}}
	packed, err := ref.Pack()
	require.NoError(t, err)

	m, err := DecodeMessage(packed)
	require.NoError(t, err)

	assert.Equal(t, uint16(0x2A2A), m.Header.ID)
	assert.True(t, m.Header.QR)
	assert.Equal(t, domain.RCodeNoError, m.Header.RCode)
	require.Len(t, m.Answers, 1)
	assert.Equal(t, "example.com.  300  A  93.184.216.34", m.Answers[0].String())
}

// TestDecodeReply_Compressed checks that names compressed by the reference
// codec decode to their full, uncompressed form.
func TestDecodeReply_Compressed(t *testing.T) {
	var ref dns.Msg
	ref.SetQuestion("mail.example.com.", dns.TypeMX)
	ref.Response = true
	ref.Compress = true
	ref.Answer = []dns.RR{&dns.MX{
		Hdr:        dns.RR_Header{Name: "mail.example.com.", Rrtype: dns.TypeMX, Class: dns.ClassINET, Ttl: 600},
		Preference: 10,
		Mx:         "mx1.mail.example.com.",
	}}
	packed, err := ref.Pack()
	require.NoError(t, err)

	m, err := DecodeMessage(packed)
	require.NoError(t, err)
	require.Len(t, m.Answers, 1)
	assert.Equal(t, "mail.example.com.", m.Answers[0].Name.String())
	assert.Equal(t, "10 mx1.mail.example.com.", m.Answers[0].Text)

	// The stored RDATA is the canonical uncompressed form.
	expected := append([]byte{0, 10}, wirename(t, "mx1.mail.example.com")...)
	assert.Equal(t, expected, m.Answers[0].Data)
}

func wirename(t *testing.T, s string) []byte {
	t.Helper()
	encoded, err := mustName(t, s).Encode()
	require.NoError(t, err)
	return encoded
}

func TestRoundTrip_Query(t *testing.T) {
	msg := testQuery(t, domain.RRTypeA, domain.NewEDNS(domain.EDNSConfig{Do: true, PayloadSize: 4096}))
	encoded, err := EncodeMessage(msg)
	require.NoError(t, err)

	decoded, err := DecodeMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestDecode_ShortBuffer(t *testing.T) {
	_, err := DecodeMessage([]byte{0, 1, 2})
	assert.ErrorIs(t, err, ErrShortMessage)
}

func TestDecode_RdlengthOverrunsMessage(t *testing.T) {
	msg := testQuery(t, domain.RRTypeA, nil)
	reply := &domain.Message{
		Header:    domain.Header{ID: 1, QR: true},
		Questions: msg.Questions,
		Answers: []domain.ResourceRecord{{
			Name:  mustName(t, "example.com"),
			Type:  domain.RRTypeA,
			Class: domain.RRClassIN,
			TTL:   300,
			Data:  []byte{1, 2, 3, 4},
		}},
	}
	encoded, err := EncodeMessage(reply)
	require.NoError(t, err)

	// Grow the announced rdlength past the end of the buffer.
	off := len(encoded) - 6
	binary.BigEndian.PutUint16(encoded[off:], 400)
	_, err = DecodeMessage(encoded)
	assert.ErrorIs(t, err, ErrShortMessage)
}

func TestDecode_DuplicateOPT(t *testing.T) {
	msg := testQuery(t, domain.RRTypeA, domain.NewEDNS(domain.EDNSConfig{}))
	encoded, err := EncodeMessage(msg)
	require.NoError(t, err)

	// Append a second empty OPT record and bump arcount.
	var opt []byte
	opt = append(opt, 0)
	opt = binary.BigEndian.AppendUint16(opt, uint16(domain.RRTypeOPT))
	opt = binary.BigEndian.AppendUint16(opt, 512)
	opt = binary.BigEndian.AppendUint32(opt, 0)
	opt = binary.BigEndian.AppendUint16(opt, 0)
	encoded = append(encoded, opt...)
	binary.BigEndian.PutUint16(encoded[10:12], 2)

	_, err = DecodeMessage(encoded)
	assert.ErrorIs(t, err, ErrDuplicateOPT)
}

func TestEncode_RejectsOPTRecordInSection(t *testing.T) {
	msg := testQuery(t, domain.RRTypeA, nil)
	msg.Additional = []domain.ResourceRecord{{
		Name: domain.Root(), Type: domain.RRTypeOPT, Class: domain.RRClass(512),
	}}
	_, err := EncodeMessage(msg)
	assert.ErrorIs(t, err, ErrDuplicateOPT)
}

func TestDecode_ExtendedRCode(t *testing.T) {
	msg := testQuery(t, domain.RRTypeA, nil)
	reply := &domain.Message{
		Header:    domain.Header{ID: 7, QR: true, RCode: domain.RCode(0)},
		Questions: msg.Questions,
		EDNS:      &domain.EDNS{PayloadSize: 1232, ExtRCode: 1},
	}
	encoded, err := EncodeMessage(reply)
	require.NoError(t, err)

	decoded, err := DecodeMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, domain.RCodeBadVers, decoded.Header.RCode)
}

func TestDecodeHeader_TruncationBit(t *testing.T) {
	reply := &domain.Message{
		Header: domain.Header{ID: 9, QR: true, Flags: domain.HeaderFlags{TC: true}},
	}
	encoded, err := EncodeMessage(reply)
	require.NoError(t, err)

	header, err := DecodeHeader(encoded)
	require.NoError(t, err)
	assert.True(t, header.QR)
	assert.True(t, header.Flags.TC)
}
