// Package ident generates DNS message IDs. The default source draws from
// crypto/rand and is safe for concurrent queries; tests inject a fixed source
// so fixture queries have deterministic IDs.
package ident

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// Source produces 16-bit message IDs.
type Source interface {
	MessageID() (uint16, error)
}

// CryptoSource draws IDs from the operating system CSPRNG.
type CryptoSource struct{}

func (CryptoSource) MessageID() (uint16, error) {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("reading random message id: %w", err)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// FixedSource always returns the same ID.
type FixedSource uint16

func (f FixedSource) MessageID() (uint16, error) {
	return uint16(f), nil
}
