package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RRType represents a DNS resource record TYPE code.
// See IANA DNS Parameters for assigned codes.
type RRType uint16

const (
	RRTypeA          RRType = 1   // A - IPv4 address
	RRTypeNS         RRType = 2   // NS - Name server
	RRTypeCNAME      RRType = 5   // CNAME - Canonical name
	RRTypeSOA        RRType = 6   // SOA - Start of authority
	RRTypePTR        RRType = 12  // PTR - Pointer
	RRTypeHINFO      RRType = 13  // HINFO - Host information
	RRTypeMX         RRType = 15  // MX - Mail exchange
	RRTypeTXT        RRType = 16  // TXT - Text
	RRTypeRP         RRType = 17  // RP - Responsible person
	RRTypeKEY        RRType = 25  // KEY - Legacy key, same wire format as DNSKEY
	RRTypeAAAA       RRType = 28  // AAAA - IPv6 address
	RRTypeLOC        RRType = 29  // LOC - Location
	RRTypeSRV        RRType = 33  // SRV - Service
	RRTypeNAPTR      RRType = 35  // NAPTR - Naming authority pointer
	RRTypeCERT       RRType = 37  // CERT - Certificate
	RRTypeDNAME      RRType = 39  // DNAME - Delegation name
	RRTypeOPT        RRType = 41  // OPT - EDNS pseudo-record
	RRTypeDS         RRType = 43  // DS - Delegation signer
	RRTypeSSHFP      RRType = 44  // SSHFP - SSH fingerprint
	RRTypeRRSIG      RRType = 46  // RRSIG - Record set signature
	RRTypeNSEC       RRType = 47  // NSEC - Next secure
	RRTypeDNSKEY     RRType = 48  // DNSKEY - DNS public key
	RRTypeNSEC3      RRType = 50  // NSEC3 - Hashed next secure
	RRTypeNSEC3PARAM RRType = 51  // NSEC3PARAM - NSEC3 parameters
	RRTypeTLSA       RRType = 52  // TLSA - TLS association
	RRTypeOPENPGPKEY RRType = 61  // OPENPGPKEY - OpenPGP key
	RRTypeAXFR       RRType = 252 // AXFR - Zone transfer (query only, unsupported)
	RRTypeANY        RRType = 255 // ANY - Any type (query only)
	RRTypeCAA        RRType = 257 // CAA - Certification authority authorization
)

var rrTypeNames = map[RRType]string{
	RRTypeA:          "A",
	RRTypeNS:         "NS",
	RRTypeCNAME:      "CNAME",
	RRTypeSOA:        "SOA",
	RRTypePTR:        "PTR",
	RRTypeHINFO:      "HINFO",
	RRTypeMX:         "MX",
	RRTypeTXT:        "TXT",
	RRTypeRP:         "RP",
	RRTypeKEY:        "KEY",
	RRTypeAAAA:       "AAAA",
	RRTypeLOC:        "LOC",
	RRTypeSRV:        "SRV",
	RRTypeNAPTR:      "NAPTR",
	RRTypeCERT:       "CERT",
	RRTypeDNAME:      "DNAME",
	RRTypeOPT:        "OPT",
	RRTypeDS:         "DS",
	RRTypeSSHFP:      "SSHFP",
	RRTypeRRSIG:      "RRSIG",
	RRTypeNSEC:       "NSEC",
	RRTypeDNSKEY:     "DNSKEY",
	RRTypeNSEC3:      "NSEC3",
	RRTypeNSEC3PARAM: "NSEC3PARAM",
	RRTypeTLSA:       "TLSA",
	RRTypeOPENPGPKEY: "OPENPGPKEY",
	RRTypeAXFR:       "AXFR",
	RRTypeANY:        "ANY",
	RRTypeCAA:        "CAA",
}

var rrTypeValues = func() map[string]RRType {
	m := make(map[string]RRType, len(rrTypeNames))
	for t, name := range rrTypeNames {
		m[name] = t
	}
	return m
}()

// String returns the type mnemonic, or "TYPE<n>" for unassigned codes
// (RFC 3597, Section 5).
func (t RRType) String() string {
	if name, ok := rrTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE%d", uint16(t))
}

// RRTypeFromString converts a type mnemonic to its code. "*" is an alias for
// ANY, and the RFC 3597 "TYPE<n>" form is accepted for any code.
func RRTypeFromString(s string) (RRType, error) {
	s = strings.ToUpper(s)
	if s == "*" {
		return RRTypeANY, nil
	}
	if t, ok := rrTypeValues[s]; ok {
		return t, nil
	}
	if rest, ok := strings.CutPrefix(s, "TYPE"); ok {
		v, err := strconv.ParseUint(rest, 10, 16)
		if err == nil {
			return RRType(v), nil
		}
	}
	return 0, fmt.Errorf("unknown record type %q", s)
}
