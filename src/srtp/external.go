package srtp

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	pionsrtp "github.com/pion/srtp/v2"
)

const defaultExternalReplayWindow = 128

// initExternalLibrary checks once per process that the external library can
// build an AES-CM context at all.
var initExternalLibrary = sync.OnceValue(func() error {
	_, err := pionsrtp.CreateContext(make([]byte, masterKeyLength), make([]byte, masterSaltLength), pionsrtp.ProtectionProfileAes128CmHmacSha1_80)
	return err
})

func externalProfile(suite SuiteParams) (pionsrtp.ProtectionProfile, error) {
	if suite.Cipher != CipherAesCm || suite.Mac != MacHmacSha1 || suite.KeyLengthBits != 128 {
		return 0, fmt.Errorf("%w: %s", ErrCipherOpen, suite)
	}
	switch suite.TagLength {
	case 4:
		return pionsrtp.ProtectionProfileAes128CmHmacSha1_32, nil
	case 10:
		return pionsrtp.ProtectionProfileAes128CmHmacSha1_80, nil
	}
	return 0, fmt.Errorf("%w: external library has no profile with a %d byte tag", ErrBadTagLen, suite.TagLength)
}

// externalPolicy is what the external context gets created from. The SSRC
// is filled in by the first packet of the direction.
type externalPolicy struct {
	profile      pionsrtp.ProtectionProfile
	masterKey    []byte
	masterSalt   []byte
	replayWindow uint
	ssrc         uint32
}

type externalStream struct {
	policy  externalPolicy
	context *pionsrtp.Context
	packets uint64
}

// bind creates the external context on the first packet, then pins the SSRC.
func (s *externalStream) bind(ssrc uint32) error {
	if s.context != nil {
		if ssrc != s.policy.ssrc {
			return fmt.Errorf("%w: got 0x%08x, bound 0x%08x", ErrSSRCMismatch, ssrc, s.policy.ssrc)
		}
		return nil
	}
	context, err := pionsrtp.CreateContext(s.policy.masterKey, s.policy.masterSalt, s.policy.profile,
		pionsrtp.SRTPReplayProtection(s.policy.replayWindow),
		pionsrtp.SRTCPReplayProtection(s.policy.replayWindow))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnprotectFailed, err)
	}
	s.policy.ssrc = ssrc
	s.context = context
	return nil
}

// externalBackend hands the whole unprotect step to pion/srtp.
type externalBackend struct {
	suite SuiteParams
	rtp   externalStream
	rtcp  externalStream
}

func newExternalBackend(suite SuiteParams, master MasterKeyMaterial, replayWindow uint) (*externalBackend, error) {
	if err := initExternalLibrary(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoLibInit, err)
	}
	profile, err := externalProfile(suite)
	if err != nil {
		return nil, err
	}
	if replayWindow == 0 {
		replayWindow = defaultExternalReplayWindow
	}
	policy := externalPolicy{
		profile:      profile,
		masterKey:    append([]byte{}, master.Key[:]...),
		masterSalt:   append([]byte{}, master.Salt[:]...),
		replayWindow: replayWindow,
	}
	return &externalBackend{
		suite: suite,
		rtp:   externalStream{policy: policy},
		rtcp:  externalStream{policy: policy},
	}, nil
}

func (b *externalBackend) Packets() (uint64, uint64) {
	return b.rtp.packets, b.rtcp.packets
}

func (b *externalBackend) DecryptRTP(p *RTPPacket) error {
	if len(p.Payload) <= b.suite.TagLength || len(p.Data) < len(p.Payload) {
		return fmt.Errorf("%w: payload %d bytes, tag %d", ErrShortPacket, len(p.Payload), b.suite.TagLength)
	}
	b.rtp.packets++
	if err := b.rtp.bind(p.SSRC); err != nil {
		return err
	}
	out, err := b.rtp.context.DecryptRTP(nil, p.Data, &rtp.Header{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnprotectFailed, err)
	}
	trimmed := len(p.Data) - len(out)
	if trimmed < 0 || trimmed > len(p.Payload) {
		return fmt.Errorf("%w: output grew from %d to %d bytes", ErrUnprotectFailed, len(p.Data), len(out))
	}
	copy(p.Data, out)
	p.Data = p.Data[:len(out)]
	p.Payload = p.Payload[:len(p.Payload)-trimmed]
	return nil
}

func (b *externalBackend) DecryptRTCP(packet []byte) ([]byte, error) {
	if len(packet) <= b.suite.TagLength+rtcpUnencryptedHeaderLength+srtcpIndexLength {
		return nil, fmt.Errorf("%w: %d bytes, tag %d", ErrShortPacket, len(packet), b.suite.TagLength)
	}
	b.rtcp.packets++
	if err := b.rtcp.bind(binary.BigEndian.Uint32(packet[4:8])); err != nil {
		return nil, err
	}
	out, err := b.rtcp.context.DecryptRTCP(nil, packet, &rtcp.Header{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnprotectFailed, err)
	}
	if len(out) > len(packet) {
		return nil, fmt.Errorf("%w: output grew from %d to %d bytes", ErrUnprotectFailed, len(packet), len(out))
	}
	n := copy(packet, out)
	return packet[:n], nil
}
