package rtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeaderWithCSRCAndExtension(t *testing.T) {
	buf := []byte{
		0b10010001, 0x80 | 96, 0x12, 0x34, // V=2 X=1 CC=1, M=1 PT=96, seq
		0x00, 0x00, 0x00, 0x64, // timestamp
		0xde, 0xad, 0xbe, 0xef, // ssrc
		0x00, 0x00, 0x00, 0x01, // csrc
		0xbe, 0xde, 0x00, 0x01, // extension profile, 1 word
		0x10, 0xaa, 0x00, 0x00, // extension payload
		0x01, 0x02, 0x03, // payload
	}
	header, offset, err := DecodeHeader(buf, 0, len(buf))
	require.NoError(t, err)

	assert.Equal(t, byte(2), header.Version)
	assert.True(t, header.Marker)
	assert.Equal(t, PayloadType(96), header.PayloadType)
	assert.Equal(t, uint16(0x1234), header.SequenceNumber)
	assert.Equal(t, uint32(0xdeadbeef), header.SSRC)
	assert.Equal(t, []uint32{1}, header.CSRC)
	assert.Equal(t, uint16(0xbede), header.ExtensionProfile)
	assert.Equal(t, 24, offset)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, buf[offset:])
}

func TestDecodeHeaderRejectsTruncatedPackets(t *testing.T) {
	_, _, err := DecodeHeader(make([]byte, 8), 0, 8)
	assert.ErrorIs(t, err, ErrHeaderTooShort)

	buf := make([]byte, 12)
	buf[0] = 0b10000011 // three csrc entries announced, none present
	_, _, err = DecodeHeader(buf, 0, len(buf))
	assert.ErrorIs(t, err, ErrHeaderTooShort)

	buf[0] = 0b10010000 // extension announced, none present
	_, _, err = DecodeHeader(buf, 0, len(buf))
	assert.ErrorIs(t, err, ErrHeaderTooShort)
}

func TestIsRtpPacket(t *testing.T) {
	buf := make([]byte, 12)
	buf[0] = 0x80
	buf[1] = 111
	assert.True(t, IsRtpPacket(buf, 0, len(buf)))

	buf[1] = 200
	assert.False(t, IsRtpPacket(buf, 0, len(buf)))

	buf[0] = 0x00
	buf[1] = 0
	assert.False(t, IsRtpPacket(buf, 0, len(buf)))
}
