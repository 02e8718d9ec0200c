package domain

// Text marshaling so the JSON rendering shows names and code mnemonics
// instead of opaque structs and bare numbers.

func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (t RRType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (c RRClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (o Opcode) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (r RCode) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
