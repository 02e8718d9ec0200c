// Package rrdata implements the typed RDATA codec. Each supported record type
// is described by a schema, an ordered list of field kinds; one walker decodes
// and re-encodes every type from its schema. Types whose presentation cannot
// be derived from the field kinds alone (LOC) get a dedicated formatter.
package rrdata

import "github.com/deep-soft/toluol/internal/dns/domain"

// FieldKind identifies the wire shape and presentation of one RDATA field.
type FieldKind int

const (
	FieldIP4      FieldKind = iota // 4-octet IPv4 address
	FieldIP6                       // 16-octet IPv6 address
	FieldName                      // domain name, possibly compressed on the wire
	FieldU8                        // unsigned 8-bit integer
	FieldU16                       // unsigned 16-bit integer
	FieldU32                       // unsigned 32-bit integer
	FieldString                    // single character-string
	FieldText                      // one or more character-strings to end of RDATA
	FieldBase64                    // remaining octets, rendered base64
	FieldHex                       // remaining octets, rendered upper-case hex
	FieldTime                      // 32-bit seconds since epoch, rendered YYYYMMDDHHMMSS
	FieldType                      // 16-bit record type code, rendered as mnemonic
	FieldOptions                   // EDNS {code, length, data} options to end of RDATA
	FieldSalt                      // 8-bit length-prefixed octets, rendered hex or "-"
	FieldHash                      // 8-bit length-prefixed octets, rendered base32
	FieldTypes                     // NSEC type bitmap to end of RDATA
	FieldProperty                  // CAA tag-length, tag, and value to end of RDATA
)

// schemas maps every supported record type to its RDATA shape. Types missing
// here decode as opaque blobs and render in the RFC 3597 unknown-type form.
var schemas = map[domain.RRType][]FieldKind{
	domain.RRTypeA:          {FieldIP4},
	domain.RRTypeNS:         {FieldName},
	domain.RRTypeCNAME:      {FieldName},
	domain.RRTypeSOA:        {FieldName, FieldName, FieldU32, FieldU32, FieldU32, FieldU32, FieldU32},
	domain.RRTypePTR:        {FieldName},
	domain.RRTypeHINFO:      {FieldString, FieldString},
	domain.RRTypeMX:         {FieldU16, FieldName},
	domain.RRTypeTXT:        {FieldText},
	domain.RRTypeRP:         {FieldName, FieldName},
	domain.RRTypeKEY:        {FieldU16, FieldU8, FieldU8, FieldBase64},
	domain.RRTypeAAAA:       {FieldIP6},
	domain.RRTypeLOC:        {FieldU8, FieldU8, FieldU8, FieldU8, FieldU32, FieldU32, FieldU32},
	domain.RRTypeSRV:        {FieldU16, FieldU16, FieldU16, FieldName},
	domain.RRTypeNAPTR:      {FieldU16, FieldU16, FieldString, FieldString, FieldString, FieldName},
	domain.RRTypeCERT:       {FieldU16, FieldU16, FieldU8, FieldBase64},
	domain.RRTypeDNAME:      {FieldName},
	domain.RRTypeOPT:        {FieldOptions},
	domain.RRTypeDS:         {FieldU16, FieldU8, FieldU8, FieldHex},
	domain.RRTypeSSHFP:      {FieldU8, FieldU8, FieldHex},
	domain.RRTypeRRSIG:      {FieldType, FieldU8, FieldU8, FieldU32, FieldTime, FieldTime, FieldU16, FieldName, FieldBase64},
	domain.RRTypeNSEC:       {FieldName, FieldTypes},
	domain.RRTypeDNSKEY:     {FieldU16, FieldU8, FieldU8, FieldBase64},
	domain.RRTypeNSEC3:      {FieldU8, FieldU8, FieldU16, FieldSalt, FieldHash, FieldTypes},
	domain.RRTypeNSEC3PARAM: {FieldU8, FieldU8, FieldU16, FieldSalt},
	domain.RRTypeTLSA:       {FieldU8, FieldU8, FieldU8, FieldHex},
	domain.RRTypeOPENPGPKEY: {FieldBase64},
	domain.RRTypeCAA:        {FieldU8, FieldProperty},
}

// Schema returns the field kinds for a record type, or nil for types that are
// handled as opaque unknown-type blobs.
func Schema(t domain.RRType) []FieldKind {
	return schemas[t]
}

// Field is one decoded RDATA field. Which members are populated depends on
// Kind: integers land in Num, names in Name, character-strings in Str or
// Strs, byte payloads in Data, bitmap members in Types, and EDNS options in
// Options. A CAA property uses Str for the tag and Data for the value.
type Field struct {
	Kind    FieldKind
	Num     uint32
	Name    domain.Name
	Str     string
	Strs    []string
	Data    []byte
	Types   []domain.RRType
	Options []domain.EDNSOption
}

// Value is the structured form of one record's RDATA. For types without a
// schema, Fields is nil and Raw holds the opaque octets.
type Value struct {
	Type   domain.RRType
	Fields []Field
	Raw    []byte
}
