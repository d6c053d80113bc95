package srtp

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"
)

// Key derivation labels, RFC 3711 section 4.3.
const (
	labelSRTPEncryption      byte = 0x00
	labelSRTPAuthentication  byte = 0x01
	labelSRTPSalt            byte = 0x02
	labelSRTCPEncryption     byte = 0x03
	labelSRTCPAuthentication byte = 0x04
	labelSRTCPSalt           byte = 0x05
)

const (
	authKeyLength     = 20
	sessionSaltLength = 14
	keyDerivationRLen = 6
)

// SessionKeys belong to exactly one direction.
type SessionKeys struct {
	CipherKey []byte
	AuthKey   [authKeyLength]byte
	Salt      [sessionSaltLength]byte
}

// saltWords reads the salt as four big-endian words, zero padded on the right.
func (k *SessionKeys) saltWords() [4]uint32 {
	var padded [blockSize]byte
	copy(padded[:], k.Salt[:])
	var words [4]uint32
	for i := range words {
		words[i] = binary.BigEndian.Uint32(padded[4*i:])
	}
	return words
}

func (k *SessionKeys) rtpCounter(ssrc, roc uint32, seq uint16) [blockSize]byte {
	words := k.saltWords()
	words[1] ^= ssrc
	words[2] ^= roc
	words[3] ^= uint32(seq) << 16
	return counterBlock(words)
}

func (k *SessionKeys) rtcpCounter(ssrc, index uint32) [blockSize]byte {
	words := k.saltWords()
	words[1] ^= ssrc
	words[2] ^= index >> 16
	words[3] ^= (index & 0xffff) << 16
	return counterBlock(words)
}

type directionLabels struct {
	encryption, authentication, salt byte
}

var (
	rtpLabels  = directionLabels{labelSRTPEncryption, labelSRTPAuthentication, labelSRTPSalt}
	rtcpLabels = directionLabels{labelSRTCPEncryption, labelSRTCPAuthentication, labelSRTCPSalt}
)

type keyDerivation struct {
	block cipher.Block
	salt  [masterSaltLength]byte
}

func newKeyDerivation(provider CryptoProvider, master MasterKeyMaterial) (*keyDerivation, error) {
	block, err := provider.NewBlock(CipherAesCm, master.Key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySet, err)
	}
	return &keyDerivation{block: block, salt: master.Salt}, nil
}

// derive returns outLen bytes of AES-CM keystream under the master key. The
// IV is the 14-byte master salt followed by two zero bytes, with label XORed
// into IV[7] and r into IV[8..13] (RFC 3711 section 4.3.1). Bytes 14 and 15
// stay zero for the block counter.
func (k *keyDerivation) derive(label byte, r [keyDerivationRLen]byte, outLen int) []byte {
	var iv [blockSize]byte
	copy(iv[:], k.salt[:])
	iv[masterSaltLength-1-len(r)] ^= label
	for i := range r {
		iv[masterSaltLength-len(r)+i] ^= r[i]
	}
	out := make([]byte, outLen)
	xorKeyStream(k.block, iv, out)
	return out
}

func (k *keyDerivation) sessionKeys(labels directionLabels, r [keyDerivationRLen]byte, keyLength int) SessionKeys {
	var result SessionKeys
	result.CipherKey = k.derive(labels.encryption, r, keyLength)
	copy(result.AuthKey[:], k.derive(labels.authentication, r, authKeyLength))
	copy(result.Salt[:], k.derive(labels.salt, r, sessionSaltLength))
	return result
}

// srtcpKeyIndex lays the SRTCP index out big-endian at the front of r.
func srtcpKeyIndex(index uint32) [keyDerivationRLen]byte {
	var r [keyDerivationRLen]byte
	binary.BigEndian.PutUint32(r[:], index)
	return r
}
