package rrdata

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/deep-soft/toluol/internal/dns/domain"
)

// base32DNSSEC is the extended-hex base32 alphabet NSEC3 owner hashes use
// (RFC 4648, Section 7), lowercase and unpadded as dig prints them.
var base32DNSSEC = base32.NewEncoding("0123456789abcdefghijklmnopqrstuv").WithPadding(base32.NoPadding)

// rrsigTimeLayout is the YYYYMMDDHHmmSS rendering of signature timestamps
// (RFC 4034, Section 3.2).
const rrsigTimeLayout = "20060102150405"

// String renders the RDATA in presentation form. The rendering is one-way: it
// follows dig conventions and is never parsed back.
func (v Value) String() string {
	if v.Fields == nil {
		// RFC 3597 unknown-type form.
		return fmt.Sprintf("\\# %d %s", len(v.Raw), strings.ToUpper(hex.EncodeToString(v.Raw)))
	}
	if v.Type == domain.RRTypeLOC {
		return formatLOC(v.Fields)
	}
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		if s := f.format(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func (f Field) format() string {
	switch f.Kind {
	case FieldIP4:
		addr, _ := netip.AddrFromSlice(f.Data)
		return addr.String()
	case FieldIP6:
		addr, _ := netip.AddrFromSlice(f.Data)
		return addr.String()
	case FieldU8, FieldU16, FieldU32:
		return strconv.FormatUint(uint64(f.Num), 10)
	case FieldTime:
		return time.Unix(int64(f.Num), 0).UTC().Format(rrsigTimeLayout)
	case FieldType:
		return domain.RRType(f.Num).String()
	case FieldName:
		return f.Name.String()
	case FieldString:
		return strconv.Quote(f.Str)
	case FieldText:
		quoted := make([]string, len(f.Strs))
		for i, s := range f.Strs {
			quoted[i] = strconv.Quote(s)
		}
		return strings.Join(quoted, " ")
	case FieldBase64:
		return base64.StdEncoding.EncodeToString(f.Data)
	case FieldHex:
		return strings.ToUpper(hex.EncodeToString(f.Data))
	case FieldSalt:
		if len(f.Data) == 0 {
			return "-"
		}
		return strings.ToUpper(hex.EncodeToString(f.Data))
	case FieldHash:
		return base32DNSSEC.EncodeToString(f.Data)
	case FieldTypes:
		names := make([]string, len(f.Types))
		for i, t := range f.Types {
			names[i] = t.String()
		}
		return strings.Join(names, " ")
	case FieldOptions:
		parts := make([]string, len(f.Options))
		for i, opt := range f.Options {
			parts[i] = opt.String()
		}
		return strings.Join(parts, ", ")
	case FieldProperty:
		return fmt.Sprintf("%s %q", f.Str, f.Data)
	default:
		return ""
	}
}

// formatLOC renders a LOC record as degrees, minutes, and seconds with the
// altitude in meters. The size and precision values are printed as their
// decoded centimeter count followed by an "m" suffix, so a one-centimeter
// sphere renders as "1.00m".
func formatLOC(fields []Field) string {
	size := decodeLOCSize(uint8(fields[1].Num))
	hp := decodeLOCSize(uint8(fields[2].Num))
	vp := decodeLOCSize(uint8(fields[3].Num))
	lat, lon, alt := fields[4].Num, fields[5].Num, fields[6].Num

	ns := "S"
	if lat >= 1<<31 {
		ns = "N"
	}
	latDeg, latMin, latSec, latFrac := decodeLOCAngle(lat)

	ew := "W"
	if lon >= 1<<31 {
		ew = "E"
	}
	lonDeg, lonMin, lonSec, lonFrac := decodeLOCAngle(lon)

	altitude := float64(alt)/100.0 - 100000.0

	return fmt.Sprintf("%d %d %d.%03d %s %d %d %d.%03d %s %.2fm %.2fm %.2fm %.2fm",
		latDeg, latMin, latSec, latFrac, ns,
		lonDeg, lonMin, lonSec, lonFrac, ew,
		altitude, float64(size), float64(hp), float64(vp))
}

// decodeLOCSize expands the base/exponent pair packed into one octet.
func decodeLOCSize(v uint8) uint32 {
	base := uint32(v >> 4)
	exp := uint32(v & 0x0F)
	out := base
	for i := uint32(0); i < exp; i++ {
		out *= 10
	}
	return out
}

// decodeLOCAngle converts thousandths of an arc second relative to 2^31 into
// degrees, minutes, seconds, and milliseconds (RFC 1876, Appendix A).
func decodeLOCAngle(v uint32) (deg, min, sec, frac uint32) {
	abs := int64(v) - (1 << 31)
	if abs < 0 {
		abs = -abs
	}
	u := uint32(abs)
	frac = u % 1000
	u /= 1000
	sec = u % 60
	u /= 60
	min = u % 60
	deg = u / 60
	return deg, min, sec, frac
}
