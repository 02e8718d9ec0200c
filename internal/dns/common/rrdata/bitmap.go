package rrdata

import (
	"sort"

	"github.com/deep-soft/toluol/internal/dns/domain"
)

// decodeTypeBitmap reads the NSEC/NSEC3 type bitmap from the rest of the
// RDATA window: a series of {window, length, octets} blocks where bit i of
// window w marks type w*256+i as present (RFC 4034, Section 4.1.2).
func decodeTypeBitmap(d *decoder) ([]domain.RRType, error) {
	var types []domain.RRType
	for d.remaining() > 0 {
		hdr, err := d.take(2)
		if err != nil {
			return nil, err
		}
		window := uint16(hdr[0])
		length := int(hdr[1])
		if length < 1 || length > 32 {
			return nil, ErrTruncated
		}
		octets, err := d.take(length)
		if err != nil {
			return nil, err
		}
		for i, octet := range octets {
			for bit := 0; bit < 8; bit++ {
				if octet&(0x80>>bit) != 0 {
					types = append(types, domain.RRType(window<<8|uint16(i*8+bit)))
				}
			}
		}
	}
	return types, nil
}

// appendTypeBitmap serializes the bitmap with windows ascending and trailing
// zero octets trimmed from each block.
func appendTypeBitmap(buf []byte, types []domain.RRType) []byte {
	windows := make(map[uint8]*[32]byte)
	for _, t := range types {
		window := uint8(t >> 8)
		offset := uint8(t & 0xFF)
		block, ok := windows[window]
		if !ok {
			block = new([32]byte)
			windows[window] = block
		}
		block[offset/8] |= 0x80 >> (offset % 8)
	}

	order := make([]uint8, 0, len(windows))
	for w := range windows {
		order = append(order, w)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	for _, w := range order {
		block := windows[w]
		last := 0
		for i, octet := range block {
			if octet != 0 {
				last = i
			}
		}
		buf = append(buf, w, byte(last+1))
		buf = append(buf, block[:last+1]...)
	}
	return buf
}
