package srtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSuite(t *testing.T) {
	suite := ResolveSuite(SuiteAesCm128HmacSha1_80)
	assert.Equal(t, 10, suite.TagLength)
	assert.Equal(t, 128, suite.KeyLengthBits)

	suite = ResolveSuite(SuiteAesCm128HmacSha1_32)
	assert.Equal(t, 4, suite.TagLength)
	assert.Equal(t, 16, suite.KeyLength())

	for _, name := range []string{"", "AES_CM_256_HMAC_SHA1_80", "aes_cm_128_hmac_sha1_32"} {
		suite = ResolveSuite(name)
		assert.Equal(t, 10, suite.TagLength, name)
		assert.Equal(t, 128, suite.KeyLengthBits, name)
		assert.Equal(t, CipherAesCm, suite.Cipher, name)
		assert.Equal(t, MacHmacSha1, suite.Mac, name)
	}
}

func TestSuiteTagFitsDigest(t *testing.T) {
	for _, suite := range append(suiteTable, DefaultSuite) {
		digestLength, err := suite.Mac.DigestLength()
		assert.NoError(t, err)
		assert.LessOrEqual(t, suite.TagLength, digestLength, suite.Name)
	}
}

func TestSuiteString(t *testing.T) {
	assert.Equal(t, "AES_CM_128_HMAC_SHA1_32 (AES-CM/HMAC-SHA1, key 128 bits, tag 4 bytes)", ResolveSuite(SuiteAesCm128HmacSha1_32).String())
}
