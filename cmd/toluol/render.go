package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deep-soft/toluol/internal/dns/domain"
	"github.com/deep-soft/toluol/internal/dns/services/query"
)

// renderShort prints only the answer RDATA, one per line.
func renderShort(m *domain.Message) string {
	var b strings.Builder
	for _, rr := range m.Answers {
		b.WriteString(rr.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// renderJSON prints the whole response, including server and timing, as one
// JSON document.
func renderJSON(resp *query.Response) (string, error) {
	doc := struct {
		Message *domain.Message `json:"message"`
		Server  string          `json:"server"`
		RTTMS   int64           `json:"rtt_ms"`
	}{resp.Message, resp.Server.String(), resp.RTT.Milliseconds()}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}

// renderFull prints the message the way the terse default output does:
// header summary, OPT pseudosection, then each non-empty section.
func renderFull(resp *query.Response) string {
	m := resp.Message
	var b strings.Builder

	fmt.Fprintf(&b, "Header:\n\tid: %d, opcode: %s, rcode: %s, flags:%s\n\n",
		m.Header.ID, m.Header.Opcode, m.Header.RCode, flagString(m.Header.Flags))

	if m.EDNS != nil {
		fmt.Fprintf(&b, "OPT Pseudosection:\n\t%s\n", m.EDNS)
		for _, opt := range m.EDNS.Options {
			fmt.Fprintf(&b, "\t%s\n", opt)
		}
		b.WriteByte('\n')
	}

	b.WriteString("Question Section:\n")
	for _, q := range m.Questions {
		fmt.Fprintf(&b, "\t%s\n", q)
	}

	sections := []struct {
		name    string
		records []domain.ResourceRecord
	}{
		{"Answer Section", m.Answers},
		{"Authority Section", m.Authority},
		{"Additional Section", m.Additional},
	}
	for _, section := range sections {
		if len(section.records) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", section.name)
		for _, rr := range section.records {
			fmt.Fprintf(&b, "\t%s\n", rr)
		}
	}

	fmt.Fprintf(&b, "\nServer %s answered in %dms.\n", resp.Server, resp.RTT.Milliseconds())
	return b.String()
}

func flagString(f domain.HeaderFlags) string {
	var b strings.Builder
	if f.AA {
		b.WriteString(" aa")
	}
	if f.TC {
		b.WriteString(" tc")
	}
	if f.RD {
		b.WriteString(" rd")
	}
	if f.RA {
		b.WriteString(" ra")
	}
	if f.AD {
		b.WriteString(" ad")
	}
	if f.CD {
		b.WriteString(" cd")
	}
	if b.Len() == 0 {
		return " <none>"
	}
	return b.String()
}
