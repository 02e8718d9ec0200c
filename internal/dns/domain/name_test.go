package domain

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName_Valid(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"example.com", "example.com."},
		{"example.com.", "example.com."},
		{"www.EXAMPLE.com", "www.EXAMPLE.com."},
		{"_sip._tcp.example.com", "_sip._tcp.example.com."},
		{"*.example.com", "*.example.com."},
		{".", "."},
		{"", "."},
	}
	for _, tt := range tests {
		n, err := ParseName(tt.input)
		require.NoError(t, err, "ParseName(%q)", tt.input)
		assert.Equal(t, tt.expected, n.String())
	}
}

func TestParseName_Invalid(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"a..b", ErrEmptyLabel},
		{"bad..", ErrEmptyLabel},
		{strings.Repeat("a", 64) + ".com", ErrLabelTooLong},
	}
	for _, tt := range tests {
		_, err := ParseName(tt.input)
		assert.ErrorIs(t, err, tt.want, "ParseName(%q)", tt.input)
	}

	// Four 63-octet labels encode to 4*64+1 = 257 octets, more than 255.
	long := strings.Join([]string{
		strings.Repeat("a", 63),
		strings.Repeat("b", 63),
		strings.Repeat("c", 63),
		strings.Repeat("d", 63),
	}, ".")
	_, err := ParseName(long)
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestNameEncode(t *testing.T) {
	n, err := ParseName("example.com")
	require.NoError(t, err)
	encoded, err := n.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte("\x07example\x03com\x00"), encoded)

	root := Root()
	encoded, err = root.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, encoded)
}

func TestNameEncode_ExactBoundary(t *testing.T) {
	// Three 63-octet labels and one 61-octet label encode to exactly 255.
	labels := []string{
		strings.Repeat("a", 63),
		strings.Repeat("b", 63),
		strings.Repeat("c", 63),
		strings.Repeat("d", 61),
	}
	n, err := NewName(labels...)
	require.NoError(t, err)
	require.Equal(t, 255, n.WireLength())
	_, err = n.Encode()
	assert.NoError(t, err)

	// One more octet pushes it over.
	labels[3] = strings.Repeat("d", 62)
	_, err = NewName(labels...)
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestDecodeName_LengthBoundary(t *testing.T) {
	// Three 63-octet labels plus a 61-octet label: exactly 255 encoded octets.
	wire := func(last int) []byte {
		var msg []byte
		for _, l := range []int{63, 63, 63, last} {
			msg = append(msg, byte(l))
			msg = append(msg, []byte(strings.Repeat("x", l))...)
		}
		return append(msg, 0)
	}

	n, _, err := DecodeName(wire(61), 0)
	require.NoError(t, err)
	assert.Equal(t, 255, n.WireLength())

	_, _, err = DecodeName(wire(62), 0)
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestDecodeName_Simple(t *testing.T) {
	msg := []byte("\x07example\x03com\x00rest")
	n, next, err := DecodeName(msg, 0)
	require.NoError(t, err)
	assert.Equal(t, "example.com.", n.String())
	assert.Equal(t, 13, next)
}

func TestDecodeName_Pointer(t *testing.T) {
	// "example.com" at offset 0, then "sub" + pointer to it.
	msg := []byte("\x07example\x03com\x00\x03sub\xc0\x00")
	n, next, err := DecodeName(msg, 13)
	require.NoError(t, err)
	assert.Equal(t, "sub.example.com.", n.String())
	// The outer reader resumes right after the two pointer octets.
	assert.Equal(t, 19, next)
}

func TestDecodeName_ForwardPointerRejected(t *testing.T) {
	msg := []byte("\xc0\x04\x00\x00\x01a\x00")
	_, _, err := DecodeName(msg, 0)
	assert.ErrorIs(t, err, ErrBadPointer)
}

func TestDecodeName_SelfPointerRejected(t *testing.T) {
	msg := []byte("\xc0\x00")
	_, _, err := DecodeName(msg, 0)
	assert.ErrorIs(t, err, ErrBadPointer)
}

func TestDecodeName_InvalidLabelBits(t *testing.T) {
	for _, first := range []byte{0x40, 0x80} {
		msg := []byte{first, 'a', 0x00}
		_, _, err := DecodeName(msg, 0)
		assert.ErrorIs(t, err, ErrMalformedName, "first octet %#02x", first)
	}
}

// pointerChain builds a message holding "a" at offset 0 followed by a chain
// of pointers, each referencing the previous one, and returns the offset of
// the last chain entry. Decoding there takes exactly hops pointer chases.
func pointerChain(hops int) ([]byte, int) {
	msg := []byte("\x01a\x00")
	target := 0
	last := 0
	for i := 0; i < hops; i++ {
		last = len(msg)
		msg = append(msg, 0xC0|byte(target>>8), byte(target&0xFF))
		target = last
	}
	return msg, last
}

func TestDecodeName_PointerChaseBound(t *testing.T) {
	msg, start := pointerChain(maxPointerChases)
	n, _, err := DecodeName(msg, start)
	require.NoError(t, err)
	assert.Equal(t, "a.", n.String())

	msg, start = pointerChain(maxPointerChases + 1)
	_, _, err = DecodeName(msg, start)
	assert.ErrorIs(t, err, ErrBadPointer)
}

func TestDecodeName_TruncatedBuffer(t *testing.T) {
	inputs := [][]byte{
		{},
		{0x05, 'a', 'b'},
		{0xC0},
	}
	for _, msg := range inputs {
		_, _, err := DecodeName(msg, 0)
		assert.True(t, errors.Is(err, ErrShortBuffer), "input %v gave %v", msg, err)
	}
}

func TestDecodeNameUncompressed(t *testing.T) {
	msg := []byte("\x07example\x03com\x00\x03sub\xc0\x00")
	_, _, err := DecodeNameUncompressed(msg, 13)
	assert.ErrorIs(t, err, ErrCompressedName)

	n, _, err := DecodeNameUncompressed(msg, 0)
	require.NoError(t, err)
	assert.Equal(t, "example.com.", n.String())
}

func TestNameString_Escaping(t *testing.T) {
	msg := []byte("\x04a.b\x07\x00")
	n, _, err := DecodeName(msg, 0)
	require.NoError(t, err)
	assert.Equal(t, `a\046b\007.`, n.String())
}

func TestNameEqual_CaseInsensitive(t *testing.T) {
	a, _ := ParseName("Example.COM")
	b, _ := ParseName("example.com")
	c, _ := ParseName("example.org")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestNameCanonicalOrdering(t *testing.T) {
	// The sorted example list from RFC 4034, Section 6.1.
	sorted := []string{
		"example",
		"a.example",
		"yljkjljk.a.example",
		"Z.a.example",
		"zABC.a.EXAMPLE",
		"z.example",
		"*.z.example",
		"a.z.example",
	}
	names := make([]Name, len(sorted))
	for i, s := range sorted {
		n, err := ParseName(s)
		require.NoError(t, err)
		names[i] = n
	}
	shuffled := []Name{names[5], names[2], names[7], names[0], names[4], names[6], names[1], names[3]}
	sort.Slice(shuffled, func(i, j int) bool { return shuffled[i].Less(shuffled[j]) })
	for i := range sorted {
		assert.True(t, shuffled[i].Equal(names[i]), "position %d: got %s want %s", i, shuffled[i], names[i])
	}
}

func TestNameZoneOf(t *testing.T) {
	parent, _ := ParseName("example.com")
	child, _ := ParseName("a.example.com")
	other, _ := ParseName("example.org")
	assert.True(t, parent.ZoneOf(child))
	assert.True(t, parent.ZoneOf(parent))
	assert.False(t, child.ZoneOf(parent))
	assert.False(t, parent.ZoneOf(other))
	assert.True(t, Root().ZoneOf(parent))
}

func TestNameWildcardHelpers(t *testing.T) {
	n, _ := ParseName("a.b.example.com")
	assert.Equal(t, uint8(4), n.LabelCount())

	stripped := n.StripToLabels(2)
	assert.Equal(t, "example.com.", stripped.String())

	wild := stripped.AsWildcard()
	assert.Equal(t, "*.com.", wild.String())
	assert.Equal(t, uint8(1), wild.LabelCount())

	star, _ := ParseName("*.example.com")
	assert.Equal(t, uint8(2), star.LabelCount())
	assert.True(t, star.IsWildcard())
}
