package srtp

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 3711 appendix B.3 master key and salt, base64 encoded the SDES way.
const testSdesKey = "4fl6DT4Bi+DWT6MsBt5BOQ7Gda1Jiv7rtpYLOqvm"

func TestDecodeSdesKey(t *testing.T) {
	master, err := DecodeSdesKey(testSdesKey)
	require.NoError(t, err)

	assert.Equal(t, "e1f97a0d3e018be0d64fa32c06de4139", hex.EncodeToString(master.Key[:]))
	assert.Equal(t, "0ec675ad498afeebb6960b3aabe6", hex.EncodeToString(master.Salt[:]))
	assert.Equal(t, "e1f97a0d3e018be0d64fa32c06de41390ec675ad498afeebb6960b3aabe6", hex.EncodeToString(master.KeySalt()))
}

func TestDecodeSdesKeyBadLength(t *testing.T) {
	_, err := DecodeSdesKey(testSdesKey[:39])
	assert.ErrorIs(t, err, ErrBadSdesLength)

	_, err = DecodeSdesKey(testSdesKey + "A")
	assert.ErrorIs(t, err, ErrBadSdesLength)

	_, err = DecodeSdesKey("")
	assert.ErrorIs(t, err, ErrBadSdesLength)
}

func TestDecodeSdesKeyBadContent(t *testing.T) {
	for _, bad := range []string{"!", "=", "-", "\n", " "} {
		key := testSdesKey[:20] + bad + testSdesKey[21:]
		require.Len(t, key, sdesKeyLength)
		_, err := DecodeSdesKey(key)
		assert.ErrorIs(t, err, ErrBadSdesContent, "character %q", bad)
	}
}
