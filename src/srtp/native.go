package srtp

import (
	"crypto/cipher"
	"crypto/hmac"
	"encoding/binary"
	"fmt"
	"hash"
)

const (
	rtcpUnencryptedHeaderLength = 8
	srtcpIndexLength            = 4
	srtcpEncryptionFlag         = 1 << 31
)

// RTPPacket is a captured RTP packet. Payload must be a sub-slice of Data
// that runs to the end of the packet. On successful decryption both slices
// shrink by the tag length and Payload holds plaintext.
type RTPPacket struct {
	Data           []byte
	Payload        []byte
	SequenceNumber uint16
	SSRC           uint32
}

// directionCrypto holds the opened cipher and MAC of one direction.
type directionCrypto struct {
	keys   SessionKeys
	block  cipher.Block
	mac    hash.Hash
	digest []byte
}

func openDirection(provider CryptoProvider, suite SuiteParams, keys SessionKeys) (*directionCrypto, error) {
	block, err := provider.NewBlock(suite.Cipher, keys.CipherKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipherOpen, err)
	}
	mac, err := provider.NewMAC(suite.Mac, keys.AuthKey[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDigestOpen, err)
	}
	return &directionCrypto{
		keys:   keys,
		block:  block,
		mac:    mac,
		digest: make([]byte, 0, mac.Size()),
	}, nil
}

// authTag computes the full-length MAC over data followed by trailer.
func (d *directionCrypto) authTag(data []byte, trailer []byte) []byte {
	d.mac.Reset()
	d.mac.Write(data)
	if len(trailer) > 0 {
		d.mac.Write(trailer)
	}
	d.digest = d.mac.Sum(d.digest[:0])
	return d.digest
}

// nativeBackend implements SRTP and SRTCP unprotect on top of a
// CryptoProvider.
type nativeBackend struct {
	suite SuiteParams

	rtp       rtpStreamState
	rtpCrypto *directionCrypto

	rtcp       rtcpStreamState
	rtcpCrypto *directionCrypto
}

func newNativeBackend(suite SuiteParams, master MasterKeyMaterial, provider CryptoProvider) (*nativeBackend, error) {
	digestLength, err := suite.Mac.DigestLength()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDigestOpen, err)
	}
	if suite.TagLength > digestLength || suite.TagLength <= 0 {
		return nil, fmt.Errorf("%w: tag %d, digest %d", ErrBadTagLen, suite.TagLength, digestLength)
	}
	if err := initNativeLibrary(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoLibInit, err)
	}

	kdf, err := newKeyDerivation(provider, master)
	if err != nil {
		return nil, err
	}
	b := &nativeBackend{suite: suite}

	rtpKeys := kdf.sessionKeys(rtpLabels, [keyDerivationRLen]byte{}, suite.KeyLength())
	if b.rtpCrypto, err = openDirection(provider, suite, rtpKeys); err != nil {
		return nil, err
	}
	// Keys are derived once, with SRTCP index 0; there is no rekeying.
	rtcpKeys := kdf.sessionKeys(rtcpLabels, srtcpKeyIndex(0), suite.KeyLength())
	if b.rtcpCrypto, err = openDirection(provider, suite, rtcpKeys); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *nativeBackend) Packets() (uint64, uint64) {
	return b.rtp.packets, b.rtcp.packets
}

func (b *nativeBackend) DecryptRTP(p *RTPPacket) error {
	tagLength := b.suite.TagLength
	if len(p.Payload) <= tagLength || len(p.Data) < len(p.Payload) {
		return fmt.Errorf("%w: payload %d bytes, tag %d", ErrShortPacket, len(p.Payload), tagLength)
	}
	b.rtp.packets++

	index, commit := b.rtp.nextIndex(p.SequenceNumber)
	roc := uint32(index >> 16)

	authenticated := len(p.Data) - tagLength
	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], roc)
	tag := b.rtpCrypto.authTag(p.Data[:authenticated], trailer[:])
	if !hmac.Equal(tag[:tagLength], p.Data[authenticated:]) {
		return ErrAuthFailed
	}

	if !b.rtp.check(index, commit) {
		return fmt.Errorf("%w: seq %d roc %d", ErrReplayed, p.SequenceNumber, roc)
	}

	payloadLength := len(p.Payload) - tagLength
	counter := b.rtpCrypto.keys.rtpCounter(p.SSRC, roc, p.SequenceNumber)
	xorKeyStream(b.rtpCrypto.block, counter, p.Payload[:payloadLength])

	p.Data = p.Data[:authenticated]
	p.Payload = p.Payload[:payloadLength]
	return nil
}

func (b *nativeBackend) DecryptRTCP(packet []byte) ([]byte, error) {
	tagLength := b.suite.TagLength
	if len(packet) <= tagLength+rtcpUnencryptedHeaderLength+srtcpIndexLength {
		return nil, fmt.Errorf("%w: %d bytes, tag %d", ErrShortPacket, len(packet), tagLength)
	}
	b.rtcp.packets++

	authenticated := len(packet) - tagLength
	tag := b.rtcpCrypto.authTag(packet[:authenticated], nil)
	if !hmac.Equal(tag[:tagLength], packet[authenticated:]) {
		return nil, ErrAuthFailed
	}

	footer := authenticated - srtcpIndexLength
	word := binary.BigEndian.Uint32(packet[footer:authenticated])
	index := word &^ srtcpEncryptionFlag
	if !b.rtcp.check(index) {
		return nil, fmt.Errorf("%w: srtcp index %d", ErrReplayed, index)
	}

	// E flag clear: the sender left the body in the clear (RFC 3711 section
	// 3.4), so only authentication and replay checks apply. Decrypting it
	// anyway would turn a plaintext body into noise.
	if word&srtcpEncryptionFlag != 0 {
		ssrc := binary.BigEndian.Uint32(packet[4:8])
		counter := b.rtcpCrypto.keys.rtcpCounter(ssrc, index)
		xorKeyStream(b.rtcpCrypto.block, counter, packet[rtcpUnencryptedHeaderLength:footer])
	}
	return packet[:authenticated], nil
}
