package srtp

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
)

const blockSize = aes.BlockSize

// xorKeyStream runs AES counter mode over data in place, starting at iv.
// Encryption and decryption are the same operation.
func xorKeyStream(block cipher.Block, iv [blockSize]byte, data []byte) {
	stream := cipher.NewCTR(block, iv[:])
	full := len(data) / blockSize * blockSize
	stream.XORKeyStream(data[:full], data[:full])

	rem := len(data) - full
	if rem == 0 {
		return
	}
	// Truncated last block: run a whole zero-padded block, keep rem bytes.
	var scratch [blockSize]byte
	copy(scratch[:], data[full:])
	stream.XORKeyStream(scratch[:], scratch[:])
	copy(data[full:], scratch[:rem])
}

// counterBlock packs four words big-endian into an IV.
func counterBlock(words [4]uint32) [blockSize]byte {
	var iv [blockSize]byte
	for i, w := range words {
		binary.BigEndian.PutUint32(iv[4*i:], w)
	}
	return iv
}
