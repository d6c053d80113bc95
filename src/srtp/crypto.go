package srtp

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"sync"
)

// CryptoProvider opens the block cipher and MAC primitives the native engine
// runs on.
type CryptoProvider interface {
	NewBlock(alg CipherAlgorithm, key []byte) (cipher.Block, error)
	NewMAC(alg MacAlgorithm, key []byte) (hash.Hash, error)
}

type stdCryptoProvider struct{}

// StdCryptoProvider is backed by crypto/aes and crypto/hmac.
func StdCryptoProvider() CryptoProvider {
	return stdCryptoProvider{}
}

func (stdCryptoProvider) NewBlock(alg CipherAlgorithm, key []byte) (cipher.Block, error) {
	switch alg {
	case CipherAesCm:
		return aes.NewCipher(key)
	}
	return nil, fmt.Errorf("unsupported cipher: %s", alg)
}

func (stdCryptoProvider) NewMAC(alg MacAlgorithm, key []byte) (hash.Hash, error) {
	switch alg {
	case MacHmacSha1:
		return hmac.New(sha1.New, key), nil
	}
	return nil, fmt.Errorf("unsupported mac: %s", alg)
}

// initNativeLibrary runs once per process, whichever session gets there first.
var initNativeLibrary = sync.OnceValue(func() error {
	return selfTest(stdCryptoProvider{})
})

// RFC 3711 B.2 and RFC 2202 test case 2.
func selfTest(provider CryptoProvider) error {
	key, _ := hex.DecodeString("2b7e151628aed2a6abf7158809cf4f3c")
	block, err := provider.NewBlock(CipherAesCm, key)
	if err != nil {
		return err
	}
	var iv [blockSize]byte
	hex.Decode(iv[:], []byte("f0f1f2f3f4f5f6f7f8f9fafbfcfd0000"))
	keystream := make([]byte, blockSize)
	xorKeyStream(block, iv, keystream)
	want, _ := hex.DecodeString("e03ead0935c95e80e166b16dd92b4eb4")
	if !bytes.Equal(keystream, want) {
		return fmt.Errorf("aes-cm known answer mismatch: %x", keystream)
	}

	mac, err := provider.NewMAC(MacHmacSha1, []byte("Jefe"))
	if err != nil {
		return err
	}
	mac.Write([]byte("what do ya want for nothing?"))
	want, _ = hex.DecodeString("effcdf6ae5eb2fa2d27416d5f184df9c259a7c79")
	if got := mac.Sum(nil); !bytes.Equal(got, want) {
		return fmt.Errorf("hmac-sha1 known answer mismatch: %x", got)
	}
	return nil
}
