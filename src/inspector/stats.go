package inspector

import (
	"go.uber.org/atomic"
)

// Stats counts datagram outcomes. Counters are safe to read while the
// capture goroutine updates them.
type Stats struct {
	Datagrams       *atomic.Uint64
	RtpDecrypted    *atomic.Uint64
	RtcpDecrypted   *atomic.Uint64
	AuthFailures    *atomic.Uint64
	Replays         *atomic.Uint64
	ShortPackets    *atomic.Uint64
	OtherFailures   *atomic.Uint64
	SessionFailures *atomic.Uint64
	UnknownStream   *atomic.Uint64
	NotMedia        *atomic.Uint64
	DecryptedBytes  *atomic.Uint64
}

type StatsSnapshot struct {
	Datagrams       uint64 `json:"datagrams"`
	RtpDecrypted    uint64 `json:"rtpDecrypted"`
	RtcpDecrypted   uint64 `json:"rtcpDecrypted"`
	AuthFailures    uint64 `json:"authFailures"`
	Replays         uint64 `json:"replays"`
	ShortPackets    uint64 `json:"shortPackets"`
	OtherFailures   uint64 `json:"otherFailures"`
	SessionFailures uint64 `json:"sessionFailures"`
	UnknownStream   uint64 `json:"unknownStream"`
	NotMedia        uint64 `json:"notMedia"`
	DecryptedBytes  uint64 `json:"decryptedBytes"`
}

func NewStats() *Stats {
	return &Stats{
		Datagrams:       atomic.NewUint64(0),
		RtpDecrypted:    atomic.NewUint64(0),
		RtcpDecrypted:   atomic.NewUint64(0),
		AuthFailures:    atomic.NewUint64(0),
		Replays:         atomic.NewUint64(0),
		ShortPackets:    atomic.NewUint64(0),
		OtherFailures:   atomic.NewUint64(0),
		SessionFailures: atomic.NewUint64(0),
		UnknownStream:   atomic.NewUint64(0),
		NotMedia:        atomic.NewUint64(0),
		DecryptedBytes:  atomic.NewUint64(0),
	}
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Datagrams:       s.Datagrams.Load(),
		RtpDecrypted:    s.RtpDecrypted.Load(),
		RtcpDecrypted:   s.RtcpDecrypted.Load(),
		AuthFailures:    s.AuthFailures.Load(),
		Replays:         s.Replays.Load(),
		ShortPackets:    s.ShortPackets.Load(),
		OtherFailures:   s.OtherFailures.Load(),
		SessionFailures: s.SessionFailures.Load(),
		UnknownStream:   s.UnknownStream.Load(),
		NotMedia:        s.NotMedia.Load(),
		DecryptedBytes:  s.DecryptedBytes.Load(),
	}
}

// Failures is the number of media packets that could not be decrypted.
func (s StatsSnapshot) Failures() uint64 {
	return s.AuthFailures + s.Replays + s.ShortPackets + s.OtherFailures + s.SessionFailures
}
