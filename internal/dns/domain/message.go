package domain

import "fmt"

// HeaderFlags holds the single-bit flags from the second header word.
type HeaderFlags struct {
	AA bool `json:"aa"` // authoritative answer
	TC bool `json:"tc"` // truncated
	RD bool `json:"rd"` // recursion desired
	RA bool `json:"ra"` // recursion available
	AD bool `json:"ad"` // authentic data
	CD bool `json:"cd"` // checking disabled
}

// Header is the fixed 12-octet DNS message header. The section counts are not
// stored; they are derived from the section slices when encoding.
type Header struct {
	ID     uint16      `json:"id"`
	QR     bool        `json:"qr"` // false for queries, true for responses
	Opcode Opcode      `json:"opcode"`
	Flags  HeaderFlags `json:"flags"`
	RCode  RCode       `json:"rcode"`
}

// Question is an entry in the question section.
type Question struct {
	Name  Name    `json:"name"`
	Type  RRType  `json:"type"`
	Class RRClass `json:"class"`
}

// String renders the question in presentation form.
func (q Question) String() string {
	return fmt.Sprintf("%s  %s  %s", q.Name, q.Class, q.Type)
}

// ResourceRecord is an entry in the answer, authority, or additional section.
// Data holds the RDATA in uncompressed wire form; Text holds the one-way
// presentation rendering produced when the record was decoded or built.
type ResourceRecord struct {
	Name  Name    `json:"name"`
	Type  RRType  `json:"type"`
	Class RRClass `json:"class"`
	TTL   uint32  `json:"ttl"`
	Data  []byte  `json:"-"`
	Text  string  `json:"data"`
}

// String renders the record the way the CLI prints it: owner, TTL, type, and
// RDATA separated by two spaces.
func (rr ResourceRecord) String() string {
	return fmt.Sprintf("%s  %d  %s  %s", rr.Name, rr.TTL, rr.Type, rr.Text)
}

// Message is a full DNS message. The OPT pseudo-record, when present, is kept
// apart from Additional as EDNS; encoders emit it last in the additional
// section and decoders fold its extended rcode bits into Header.RCode.
type Message struct {
	Header     Header           `json:"header"`
	Questions  []Question       `json:"questions"`
	Answers    []ResourceRecord `json:"answers"`
	Authority  []ResourceRecord `json:"authority,omitempty"`
	Additional []ResourceRecord `json:"additional,omitempty"`
	EDNS       *EDNS            `json:"edns,omitempty"`
}

// QuestionEchoed reports whether the reply echoes the given question,
// comparing the name case-insensitively.
func (m *Message) QuestionEchoed(q Question) bool {
	for _, got := range m.Questions {
		if got.Type == q.Type && got.Class == q.Class && got.Name.Equal(q.Name) {
			return true
		}
	}
	return false
}

// Records returns the answer and authority sections as one slice, the input
// to RRset grouping for DNSSEC verification.
func (m *Message) Records() []ResourceRecord {
	out := make([]ResourceRecord, 0, len(m.Answers)+len(m.Authority))
	out = append(out, m.Answers...)
	out = append(out, m.Authority...)
	return out
}
