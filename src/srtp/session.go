package srtp

import (
	"fmt"
	"strings"

	"github.com/rajinda/sniffer/src/logging"
)

type Mode uint8

const (
	ModeNative Mode = iota
	ModeExternal
)

func (m Mode) String() string {
	switch m {
	case ModeNative:
		return "native"
	case ModeExternal:
		return "external"
	}
	return fmt.Sprintf("unknown (%d)", uint8(m))
}

// ParseMode accepts "native" and "external"; an empty string means native.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native":
		return ModeNative, nil
	case "external", "libsrtp", "pion":
		return ModeExternal, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

type State uint8

const (
	StateUninitialized State = iota
	StateKeyLoaded
	StateReady
	StateDecrypting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateKeyLoaded:
		return "KeyLoaded"
	case StateReady:
		return "Ready"
	case StateDecrypting:
		return "Decrypting"
	case StateFailed:
		return "Failed"
	}
	return fmt.Sprintf("Unknown State (%d)", uint8(s))
}

// Backend unprotects packets of one session. Both implementations keep the
// RTP and RTCP directions apart and are not safe for concurrent use.
type Backend interface {
	DecryptRTP(p *RTPPacket) error
	DecryptRTCP(packet []byte) ([]byte, error)
	// Packets counts the RTP and RTCP packets that passed the length check.
	Packets() (rtp uint64, rtcp uint64)
}

type sessionOptions struct {
	suite        *SuiteParams
	provider     CryptoProvider
	replayWindow uint
}

type Option func(*sessionOptions)

// WithSuite bypasses the suite name lookup.
func WithSuite(suite SuiteParams) Option {
	return func(o *sessionOptions) {
		o.suite = &suite
	}
}

// WithCryptoProvider replaces the AES and HMAC primitives of the native backend.
func WithCryptoProvider(provider CryptoProvider) Option {
	return func(o *sessionOptions) {
		o.provider = provider
	}
}

// WithReplayWindow sets the replay window the external library is created with.
func WithReplayWindow(size uint) Option {
	return func(o *sessionOptions) {
		o.replayWindow = size
	}
}

// Session decrypts one media stream: its SRTP packets and the SRTCP packets
// of the same source. Drive it from a single goroutine.
type Session struct {
	mode      Mode
	suite     SuiteParams
	master    MasterKeyMaterial
	backend   Backend
	state     State
	lastError error
}

// NewSession always returns a session. When err is not nil the session is in
// StateFailed, Err reports the same error and every decrypt call fails.
func NewSession(suiteName string, sdesKey string, mode Mode, opts ...Option) (*Session, error) {
	options := sessionOptions{
		provider:     StdCryptoProvider(),
		replayWindow: defaultExternalReplayWindow,
	}
	for _, opt := range opts {
		opt(&options)
	}

	s := &Session{
		mode:  mode,
		suite: ResolveSuite(suiteName),
		state: StateUninitialized,
	}
	if options.suite != nil {
		s.suite = *options.suite
	}

	master, err := DecodeSdesKey(sdesKey)
	if err != nil {
		return s, s.fail(err)
	}
	s.master = master
	s.state = StateKeyLoaded

	var backend Backend
	switch mode {
	case ModeNative:
		backend, err = newNativeBackend(s.suite, master, options.provider)
	case ModeExternal:
		backend, err = newExternalBackend(s.suite, master, options.replayWindow)
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownMode, mode)
	}
	if err != nil {
		return s, s.fail(err)
	}
	s.backend = backend
	s.state = StateReady
	logging.Descf(logging.ProtoSRTP, "Session ready: mode <u>%s</u>, suite <u>%s</u>", s.mode, s.suite)
	return s, nil
}

func (s *Session) fail(err error) error {
	s.state = StateFailed
	s.lastError = err
	logging.Errorf(logging.ProtoSRTP, "Session setup failed in mode <u>%s</u>: %s", s.mode, err)
	return err
}

func (s *Session) Mode() Mode { return s.mode }
func (s *Session) Suite() SuiteParams { return s.suite }
func (s *Session) State() State { return s.state }
func (s *Session) Err() error { return s.lastError }
func (s *Session) Valid() bool { return s.state == StateReady || s.state == StateDecrypting }
func (s *Session) TagLength() int { return s.suite.TagLength }

// Packets reports how many RTP and RTCP packets reached the backend, whether
// or not they were accepted. A failed session reports zero.
func (s *Session) Packets() (rtp uint64, rtcp uint64) {
	if s.backend == nil {
		return 0, 0
	}
	return s.backend.Packets()
}

// UnprotectRTP authenticates and decrypts p in place. The returned error
// tells short packets, tag mismatches and replays apart.
func (s *Session) UnprotectRTP(p *RTPPacket) error {
	if !s.Valid() {
		return ErrSessionNotReady
	}
	s.state = StateDecrypting
	return s.backend.DecryptRTP(p)
}

// UnprotectRTCP authenticates and decrypts packet in place and returns it
// shortened by the bytes the backend stripped.
func (s *Session) UnprotectRTCP(packet []byte) ([]byte, error) {
	if !s.Valid() {
		return nil, ErrSessionNotReady
	}
	s.state = StateDecrypting
	return s.backend.DecryptRTCP(packet)
}

// DecryptRTP reports success only; on failure p is left untouched.
func (s *Session) DecryptRTP(p *RTPPacket) bool {
	return s.UnprotectRTP(p) == nil
}

// DecryptRTCP reports success only; on failure packet is left untouched and
// the returned slice is nil.
func (s *Session) DecryptRTCP(packet []byte) ([]byte, bool) {
	out, err := s.UnprotectRTCP(packet)
	return out, err == nil
}
