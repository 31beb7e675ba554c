package binary

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_RoundTrip(t *testing.T) {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := range key {
		key[i] = byte(i + 1)
	}
	native := uint64(2039280)

	size := 2*ed25519.PublicKeySize + 2*(OptionTagSize+ed25519.PublicKeySize) + 8 + 2*(OptionTagSize+8) + 2
	buf := make([]byte, size)

	w := NewWriter(buf)
	w.Key(key)
	w.OptionalKey(key)
	w.OptionalKey(nil)
	w.Uint64(42)
	w.OptionalUint64(&native)
	w.OptionalUint64(nil)
	w.Uint8(7)
	w.Bool(true)
	w.Key(key)
	require.Equal(t, size, w.Offset())

	r := NewReader(buf)
	assert.EqualValues(t, key, r.Key())
	assert.EqualValues(t, key, r.OptionalKey())
	assert.Nil(t, r.OptionalKey())
	assert.EqualValues(t, 42, r.Uint64())
	require.NotNil(t, r.OptionalUint64())
	assert.Nil(t, r.OptionalUint64())
	assert.EqualValues(t, 7, r.Uint8())
	assert.True(t, r.Bool())
	assert.EqualValues(t, key, r.Key())
	assert.Equal(t, size, r.Offset())
}

func TestLayout_OptionTag(t *testing.T) {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	key[0] = 9

	buf := make([]byte, OptionTagSize+ed25519.PublicKeySize)
	NewWriter(buf).OptionalKey(key)

	assert.Equal(t, []byte{1, 0, 0, 0}, buf[:OptionTagSize])
	assert.EqualValues(t, 9, buf[OptionTagSize])
}
