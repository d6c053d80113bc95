package srtp

import (
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	sdesKeyLength    = 40
	masterKeyLength  = 16
	masterSaltLength = 14
)

// MasterKeyMaterial is decoded once from the signaled key and never changes.
type MasterKeyMaterial struct {
	Key  [masterKeyLength]byte
	Salt [masterSaltLength]byte
}

// KeySalt returns key || salt, the layout SDES carries on the wire.
func (m MasterKeyMaterial) KeySalt() []byte {
	result := make([]byte, 0, masterKeyLength+masterSaltLength)
	result = append(result, m.Key[:]...)
	return append(result, m.Salt[:]...)
}

// DecodeSdesKey turns the 40 character inline key of an a=crypto line into
// the 16 byte master key and 14 byte master salt.
func DecodeSdesKey(sdes string) (MasterKeyMaterial, error) {
	var result MasterKeyMaterial
	if len(sdes) != sdesKeyLength {
		return result, fmt.Errorf("%w: got %d", ErrBadSdesLength, len(sdes))
	}
	raw, err := base64.RawStdEncoding.Strict().DecodeString(sdes)
	if err != nil {
		var corrupt base64.CorruptInputError
		if errors.As(err, &corrupt) {
			return result, fmt.Errorf("%w: offset %d", ErrBadSdesContent, int64(corrupt))
		}
		return result, fmt.Errorf("%w: %v", ErrBadSdesContent, err)
	}
	// The decoder skips CR and LF, which shortens the output.
	if len(raw) != masterKeyLength+masterSaltLength {
		return result, fmt.Errorf("%w: decoded %d bytes", ErrBadSdesContent, len(raw))
	}
	copy(result.Key[:], raw[:masterKeyLength])
	copy(result.Salt[:], raw[masterKeyLength:])
	return result, nil
}
