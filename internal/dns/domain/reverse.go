package domain

import (
	"fmt"
	"net/netip"
	"strconv"
)

// ReverseName builds the PTR query name for an IP address: the dotted octet
// reversal under in-addr.arpa for IPv4, and the reversed nibble expansion
// under ip6.arpa for IPv6 (RFC 3596, Section 2.5).
func ReverseName(addr netip.Addr) (Name, error) {
	if addr.Is4() || addr.Is4In6() {
		b := addr.As4()
		labels := []string{
			strconv.Itoa(int(b[3])),
			strconv.Itoa(int(b[2])),
			strconv.Itoa(int(b[1])),
			strconv.Itoa(int(b[0])),
			"in-addr", "arpa",
		}
		return NewName(labels...)
	}
	if addr.Is6() {
		b := addr.As16()
		labels := make([]string, 0, 34)
		for i := 15; i >= 0; i-- {
			labels = append(labels,
				string(hexDigits[b[i]&0x0F]),
				string(hexDigits[b[i]>>4]))
		}
		labels = append(labels, "ip6", "arpa")
		return NewName(labels...)
	}
	return Name{}, fmt.Errorf("invalid address %v", addr)
}

const hexDigits = "0123456789abcdef"
