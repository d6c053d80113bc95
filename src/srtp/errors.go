package srtp

import "errors"

// Construction errors. A session that hits one of these stays in StateFailed.
var (
	ErrBadSdesLength  = errors.New("srtp: sdes key must be 40 characters")
	ErrBadSdesContent = errors.New("srtp: sdes key contains a character outside the base64 alphabet")
	ErrBadTagLen      = errors.New("srtp: tag length exceeds digest length")
	ErrCryptoLibInit  = errors.New("srtp: crypto library initialization failed")
	ErrCipherOpen     = errors.New("srtp: cannot open cipher")
	ErrDigestOpen     = errors.New("srtp: cannot open digest")
	ErrKeySet         = errors.New("srtp: cannot set key")
	ErrUnknownMode    = errors.New("srtp: unknown backend mode")
)

// Per-packet errors. None of them changes the session state.
var (
	ErrShortPacket     = errors.New("srtp: packet too short")
	ErrAuthFailed      = errors.New("srtp: authentication tag mismatch")
	ErrReplayed        = errors.New("srtp: replayed or too old packet")
	ErrSSRCMismatch    = errors.New("srtp: ssrc does not match the bound policy")
	ErrUnprotectFailed = errors.New("srtp: external unprotect failed")
	ErrSessionNotReady = errors.New("srtp: session is not ready")
)
