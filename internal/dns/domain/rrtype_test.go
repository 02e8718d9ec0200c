package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRRTypeString(t *testing.T) {
	tests := []struct {
		rrtype   RRType
		expected string
	}{
		{RRTypeA, "A"},
		{RRTypeAAAA, "AAAA"},
		{RRTypeRRSIG, "RRSIG"},
		{RRTypeNSEC3PARAM, "NSEC3PARAM"},
		{RRTypeCAA, "CAA"},
		{RRTypeANY, "ANY"},
		{RRType(999), "TYPE999"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.rrtype.String())
	}
}

func TestRRTypeFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected RRType
	}{
		{"A", RRTypeA},
		{"mx", RRTypeMX},
		{"Caa", RRTypeCAA},
		{"*", RRTypeANY},
		{"ANY", RRTypeANY},
		{"AXFR", RRTypeAXFR},
		{"TYPE999", RRType(999)},
	}
	for _, tt := range tests {
		got, err := RRTypeFromString(tt.input)
		assert.NoError(t, err, "RRTypeFromString(%q)", tt.input)
		assert.Equal(t, tt.expected, got)
	}

	for _, bad := range []string{"", "BOGUS", "TYPEx", "TYPE70000"} {
		_, err := RRTypeFromString(bad)
		assert.Error(t, err, "RRTypeFromString(%q)", bad)
	}
}

func TestRCodeString(t *testing.T) {
	assert.Equal(t, "NOERROR", RCodeNoError.String())
	assert.Equal(t, "NXDOMAIN", RCodeNXDomain.String())
	assert.Equal(t, "BADVERS", RCodeBadVers.String())
	assert.Equal(t, "RCODE4095", RCode(4095).String())
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "QUERY", OpcodeQuery.String())
	assert.Equal(t, "NOTIFY", OpcodeNotify.String())
	assert.Equal(t, "OPCODE15", Opcode(15).String())
}
