package rrdata

import (
	"encoding/binary"
	"fmt"
)

// Encode serializes the value back to wire form. Embedded names are always
// emitted uncompressed, so re-encoding a decoded value yields the original
// octets whenever the source message used no compression inside the RDATA.
func (v Value) Encode() ([]byte, error) {
	if v.Fields == nil {
		return append([]byte(nil), v.Raw...), nil
	}
	var buf []byte
	var err error
	for _, f := range v.Fields {
		buf, err = f.appendWire(buf)
		if err != nil {
			return nil, fmt.Errorf("encoding rdata for %s: %w", v.Type, err)
		}
	}
	return buf, nil
}

func (f Field) appendWire(buf []byte) ([]byte, error) {
	switch f.Kind {
	case FieldIP4, FieldIP6, FieldBase64, FieldHex:
		return append(buf, f.Data...), nil
	case FieldU8:
		return append(buf, byte(f.Num)), nil
	case FieldU16, FieldType:
		return binary.BigEndian.AppendUint16(buf, uint16(f.Num)), nil
	case FieldU32, FieldTime:
		return binary.BigEndian.AppendUint32(buf, f.Num), nil
	case FieldName:
		return f.Name.AppendWire(buf)
	case FieldString:
		return appendCharacterString(buf, f.Str)
	case FieldText:
		var err error
		for _, s := range f.Strs {
			buf, err = appendCharacterString(buf, s)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case FieldSalt, FieldHash:
		if len(f.Data) > 255 {
			return nil, fmt.Errorf("length-prefixed payload of %d octets", len(f.Data))
		}
		buf = append(buf, byte(len(f.Data)))
		return append(buf, f.Data...), nil
	case FieldTypes:
		return appendTypeBitmap(buf, f.Types), nil
	case FieldOptions:
		for _, opt := range f.Options {
			if len(opt.Data) > 0xFFFF {
				return nil, fmt.Errorf("option %d payload of %d octets", opt.Code, len(opt.Data))
			}
			buf = binary.BigEndian.AppendUint16(buf, opt.Code)
			buf = binary.BigEndian.AppendUint16(buf, uint16(len(opt.Data)))
			buf = append(buf, opt.Data...)
		}
		return buf, nil
	case FieldProperty:
		if len(f.Str) > 255 {
			return nil, fmt.Errorf("property tag of %d octets", len(f.Str))
		}
		buf = append(buf, byte(len(f.Str)))
		buf = append(buf, f.Str...)
		return append(buf, f.Data...), nil
	default:
		return nil, fmt.Errorf("unhandled field kind %d", f.Kind)
	}
}

func appendCharacterString(buf []byte, s string) ([]byte, error) {
	if len(s) > 255 {
		return nil, fmt.Errorf("character-string of %d octets", len(s))
	}
	buf = append(buf, byte(len(s)))
	return append(buf, s...), nil
}

// Canonicalize lowercases every embedded domain name, per the canonical RDATA
// form of RFC 4034, Section 6.2. The receiver is updated in place.
func (v *Value) Canonicalize() {
	for i := range v.Fields {
		if v.Fields[i].Kind == FieldName {
			v.Fields[i].Name = v.Fields[i].Name.Canonical()
		}
	}
}
