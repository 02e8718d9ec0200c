package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoSource(t *testing.T) {
	src := CryptoSource{}
	seen := make(map[uint16]bool)
	for i := 0; i < 64; i++ {
		id, err := src.MessageID()
		require.NoError(t, err)
		seen[id] = true
	}
	// 64 draws from a 16-bit space collapsing to one value would mean the
	// source is broken, not unlucky.
	assert.Greater(t, len(seen), 1)
}

func TestFixedSource(t *testing.T) {
	src := FixedSource(0xBEEF)
	id, err := src.MessageID()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), id)
}
