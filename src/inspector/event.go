package inspector

import (
	"time"
)

type PacketKind string

const (
	KindRTP  PacketKind = "rtp"
	KindRTCP PacketKind = "rtcp"
)

type Result string

const (
	ResultDecrypted     Result = "decrypted"
	ResultAuthFailed    Result = "auth-failed"
	ResultReplayed      Result = "replayed"
	ResultShort         Result = "short"
	ResultSessionFailed Result = "session-failed"
	ResultFailed        Result = "failed"
)

// Event describes one media packet after the decrypt attempt. Payload holds
// the decrypted RTP payload or RTCP body and is owned by the event.
type Event struct {
	Time           time.Time  `json:"time"`
	Stream         string     `json:"stream"`
	Kind           PacketKind `json:"kind"`
	SSRC           uint32     `json:"ssrc"`
	SequenceNumber uint16     `json:"sequenceNumber,omitempty"`
	PayloadType    uint8      `json:"payloadType"`
	Length         int        `json:"length"`
	Result         Result     `json:"result"`
	Error          string     `json:"error,omitempty"`
	Payload        []byte     `json:"-"`
}

type Observer func(Event)
