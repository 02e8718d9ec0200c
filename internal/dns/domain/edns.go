package domain

import (
	"encoding/hex"
	"fmt"
)

// EDNS option codes from the IANA registry.
const (
	EDNSOptionCookie  uint16 = 10 // RFC 7873
	EDNSOptionPadding uint16 = 12 // RFC 7830
)

// EDNSOption is a single {code, data} option from an OPT RDATA.
type EDNSOption struct {
	Code uint16 `json:"code"`
	Data []byte `json:"data"`
}

// String renders the option the way dig's OPT pseudosection does: the code
// mnemonic followed by the payload, hex-encoded except for padding.
func (o EDNSOption) String() string {
	switch o.Code {
	case EDNSOptionCookie:
		return fmt.Sprintf("COOKIE: %s", hex.EncodeToString(o.Data))
	case EDNSOptionPadding:
		return "PADDING: <padding>"
	default:
		return fmt.Sprintf("CODE%d: %s", o.Code, hex.EncodeToString(o.Data))
	}
}

// EDNS carries the parameters of the OPT pseudo-record (RFC 6891). The OPT
// owner name is always the root and is not stored.
type EDNS struct {
	// PayloadSize is the requestor's maximum UDP payload size, carried in the
	// OPT record's class field.
	PayloadSize uint16 `json:"payload_size"`
	// ExtRCode holds the upper eight bits of the extended rcode, carried in
	// the top octet of the OPT record's TTL field.
	ExtRCode uint8 `json:"ext_rcode"`
	// Version is the EDNS version, almost always zero.
	Version uint8 `json:"version"`
	// Do is the DNSSEC OK bit.
	Do bool `json:"do"`
	// Options holds the {code, length, data} options from the RDATA.
	Options []EDNSOption `json:"options,omitempty"`
}

// EDNSConfig are the EDNS parameters a caller picks when building a query.
type EDNSConfig struct {
	// Do requests DNSSEC records by setting the DO bit.
	Do bool
	// PayloadSize advertises the maximum UDP payload size. Zero means the
	// default of 1232 octets.
	PayloadSize uint16
	// ClientCookie, when non-nil, attaches an eight-octet EDNS client cookie.
	ClientCookie []byte
}

// DefaultPayloadSize is the EDNS payload size advertised when the caller does
// not pick one; 1232 avoids IPv6 fragmentation on common paths.
const DefaultPayloadSize = 1232

// NewEDNS builds the OPT parameters for a query from an EDNSConfig.
func NewEDNS(cfg EDNSConfig) *EDNS {
	size := cfg.PayloadSize
	if size == 0 {
		size = DefaultPayloadSize
	}
	e := &EDNS{
		PayloadSize: size,
		Do:          cfg.Do,
	}
	if cfg.ClientCookie != nil {
		e.Options = append(e.Options, EDNSOption{Code: EDNSOptionCookie, Data: cfg.ClientCookie})
	}
	return e
}

// String renders the pseudosection summary line.
func (e *EDNS) String() string {
	flags := "<none>"
	if e.Do {
		flags = "do"
	}
	return fmt.Sprintf("EDNS: version %d, flags: %s, payload size: %d", e.Version, flags, e.PayloadSize)
}
