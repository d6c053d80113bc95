package srtp

import (
	"crypto/sha1"
	"fmt"
)

type CipherAlgorithm uint8

const (
	CipherAesCm CipherAlgorithm = iota
)

type MacAlgorithm uint8

const (
	MacHmacSha1 MacAlgorithm = iota
)

const (
	SuiteAesCm128HmacSha1_32 = "AES_CM_128_HMAC_SHA1_32"
	SuiteAesCm128HmacSha1_80 = "AES_CM_128_HMAC_SHA1_80"
)

// SuiteParams is resolved once, before any cipher or MAC context exists, and
// handed by value to whichever backend the session uses.
type SuiteParams struct {
	Name          string
	Cipher        CipherAlgorithm
	Mac           MacAlgorithm
	TagLength     int
	KeyLengthBits int
}

// DefaultSuite is used when the requested name is empty or unknown.
var DefaultSuite = SuiteParams{
	Name:          SuiteAesCm128HmacSha1_80,
	Cipher:        CipherAesCm,
	Mac:           MacHmacSha1,
	TagLength:     10,
	KeyLengthBits: 128,
}

var suiteTable = []SuiteParams{
	{Name: SuiteAesCm128HmacSha1_32, Cipher: CipherAesCm, Mac: MacHmacSha1, TagLength: 4, KeyLengthBits: 128},
	{Name: SuiteAesCm128HmacSha1_80, Cipher: CipherAesCm, Mac: MacHmacSha1, TagLength: 10, KeyLengthBits: 128},
}

// ResolveSuite looks name up by exact match.
func ResolveSuite(name string) SuiteParams {
	for _, suite := range suiteTable {
		if suite.Name == name {
			return suite
		}
	}
	return DefaultSuite
}

func (p SuiteParams) KeyLength() int {
	return p.KeyLengthBits / 8
}

func (p SuiteParams) String() string {
	return fmt.Sprintf("%s (%s/%s, key %d bits, tag %d bytes)", p.Name, p.Cipher, p.Mac, p.KeyLengthBits, p.TagLength)
}

func (c CipherAlgorithm) String() string {
	switch c {
	case CipherAesCm:
		return "AES-CM"
	}
	return fmt.Sprintf("Unknown Cipher (%d)", uint8(c))
}

func (m MacAlgorithm) String() string {
	switch m {
	case MacHmacSha1:
		return "HMAC-SHA1"
	}
	return fmt.Sprintf("Unknown MAC (%d)", uint8(m))
}

// DigestLength is the untruncated output size of the MAC.
func (m MacAlgorithm) DigestLength() (int, error) {
	switch m {
	case MacHmacSha1:
		return sha1.Size, nil
	}
	return 0, fmt.Errorf("unknown mac algorithm: %d", m)
}
