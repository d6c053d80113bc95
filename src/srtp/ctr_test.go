package srtp

import (
	"bytes"
	"crypto/aes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlockAndIV(t *testing.T) ([blockSize]byte, func(data []byte)) {
	key, _ := hex.DecodeString("2b7e151628aed2a6abf7158809cf4f3c")
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	var iv [blockSize]byte
	_, err = hex.Decode(iv[:], []byte("f0f1f2f3f4f5f6f7f8f9fafbfcfd0000"))
	require.NoError(t, err)
	return iv, func(data []byte) { xorKeyStream(block, iv, data) }
}

// RFC 3711 appendix B.2.
func TestKeyStreamVector(t *testing.T) {
	_, apply := testBlockAndIV(t)
	keystream := make([]byte, 48)
	apply(keystream)
	assert.Equal(t,
		"e03ead0935c95e80e166b16dd92b4eb4"+
			"d23513162b02d0f72a43a2fe4a5f97ab"+
			"41e95b3bb0a2e8dd477901e4fca894c0",
		hex.EncodeToString(keystream))
}

func TestCounterModeRoundTrip(t *testing.T) {
	_, apply := testBlockAndIV(t)
	for _, n := range []int{0, 1, 15, 16, 17, 33} {
		plain := make([]byte, n)
		for i := range plain {
			plain[i] = byte(i*7 + 3)
		}
		data := append([]byte{}, plain...)

		apply(data)
		if n > 0 {
			assert.NotEqual(t, plain, data, "length %d", n)
		}
		apply(data)
		assert.Equal(t, plain, data, "length %d", n)
	}
}

func TestPartialBlockMatchesFullKeyStream(t *testing.T) {
	_, apply := testBlockAndIV(t)
	full := make([]byte, 48)
	apply(full)
	for _, n := range []int{1, 15, 17, 33, 47} {
		partial := make([]byte, n)
		apply(partial)
		assert.True(t, bytes.Equal(full[:n], partial), "length %d", n)
	}
}

func TestPartialBlockStaysInBounds(t *testing.T) {
	_, apply := testBlockAndIV(t)
	backing := bytes.Repeat([]byte{0xaa}, 24)
	apply(backing[:17])
	assert.Equal(t, bytes.Repeat([]byte{0xaa}, 7), backing[17:])
}
