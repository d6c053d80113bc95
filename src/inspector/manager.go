package inspector

import (
	"errors"
	"sort"
	"sync"

	"github.com/rajinda/sniffer/src/capture"
	"github.com/rajinda/sniffer/src/logging"
	"github.com/rajinda/sniffer/src/rtcp"
	"github.com/rajinda/sniffer/src/rtp"
	"github.com/rajinda/sniffer/src/srtp"
)

type sessionKey struct {
	stream string
	ssrc   uint32
}

// streamSession is the decrypt state of one SSRC within a stream. RTP and
// the sender's RTCP share it.
type streamSession struct {
	stream  *Stream
	ssrc    uint32
	session *srtp.Session

	failures     uint64
	lastSequence uint16
}

type SessionInfo struct {
	Stream       string `json:"stream"`
	SSRC         uint32 `json:"ssrc"`
	Mode         string `json:"mode"`
	Suite        string `json:"suite"`
	State        string `json:"state"`
	Error        string `json:"error,omitempty"`
	RtpPackets   uint64 `json:"rtpPackets"`
	RtcpPackets  uint64 `json:"rtcpPackets"`
	Failures     uint64 `json:"failures"`
	LastSequence uint16 `json:"lastSequence"`
}

// Manager routes captured datagrams to per-SSRC decrypt sessions.
type Manager struct {
	Stats *Stats

	mu             sync.Mutex
	streams        []*Stream
	sessions       map[sessionKey]*streamSession
	observers      []Observer
	sessionOptions []srtp.Option
}

func NewManager(streams []*Stream, sessionOptions ...srtp.Option) *Manager {
	return &Manager{
		Stats:          NewStats(),
		streams:        streams,
		sessions:       map[sessionKey]*streamSession{},
		sessionOptions: sessionOptions,
	}
}

func (m *Manager) AddStream(stream *Stream) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams = append(m.streams, stream)
	logging.Infof(logging.ProtoAPP, "Watching stream <u>%s</u>", stream)
}

// Subscribe registers observer for every later Event. Observers run on the
// capture goroutine and must not block.
func (m *Manager) Subscribe(observer Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, observer)
}

func (m *Manager) StatsSnapshot() StatsSnapshot {
	return m.Stats.Snapshot()
}

func (m *Manager) Sessions() []SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		rtpPackets, rtcpPackets := s.session.Packets()
		info := SessionInfo{
			Stream:       s.stream.Name,
			SSRC:         s.ssrc,
			Mode:         s.session.Mode().String(),
			Suite:        s.session.Suite().Name,
			State:        s.session.State().String(),
			RtpPackets:   rtpPackets,
			RtcpPackets:  rtcpPackets,
			Failures:     s.failures,
			LastSequence: s.lastSequence,
		}
		if err := s.session.Err(); err != nil {
			info.Error = err.Error()
		}
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Stream != result[j].Stream {
			return result[i].Stream < result[j].Stream
		}
		return result[i].SSRC < result[j].SSRC
	})
	return result
}

func (m *Manager) findStream(d capture.Datagram) *Stream {
	for _, stream := range m.streams {
		if stream.Matches(d.Dst) || stream.Matches(d.Src) {
			return stream
		}
	}
	return nil
}

func (m *Manager) ensureSession(stream *Stream, ssrc uint32) *streamSession {
	key := sessionKey{stream: stream.Name, ssrc: ssrc}
	if s, ok := m.sessions[key]; ok {
		return s
	}
	// A failed session is kept too, so a bad key is reported once.
	session, err := srtp.NewSession(stream.Suite, stream.SdesKey, stream.Mode, m.sessionOptions...)
	if err != nil {
		logging.Errorf(logging.ProtoSRTP, "Cannot create session for stream <u>%s</u> SSRC <u>0x%08x</u>: %s", stream.Name, ssrc, err)
	} else {
		logging.Infof(logging.ProtoSRTP, "New session for stream <u>%s</u> SSRC <u>0x%08x</u>, suite <u>%s</u>", stream.Name, ssrc, session.Suite().Name)
	}
	s := &streamSession{stream: stream, ssrc: ssrc, session: session}
	m.sessions[key] = s
	return s
}

// HandleDatagram decrypts d if it belongs to a known stream. d.Payload is not
// modified.
func (m *Manager) HandleDatagram(d capture.Datagram) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stats.Datagrams.Inc()

	stream := m.findStream(d)
	if stream == nil {
		m.Stats.UnknownStream.Inc()
		return
	}

	buf := append([]byte(nil), d.Payload...)
	switch {
	case rtcp.IsRtcpPacket(buf, 0, len(buf)):
		m.handleRTCP(d, stream, buf)
	case rtp.IsRtpPacket(buf, 0, len(buf)):
		m.handleRTP(d, stream, buf)
	default:
		// STUN, DTLS and anything else sharing the port.
		m.Stats.NotMedia.Inc()
	}
}

func (m *Manager) handleRTP(d capture.Datagram, stream *Stream, buf []byte) {
	header, payloadOffset, err := rtp.DecodeHeader(buf, 0, len(buf))
	event := Event{Time: d.Timestamp, Stream: stream.Name, Kind: KindRTP, Length: len(buf)}
	if err != nil {
		m.Stats.ShortPackets.Inc()
		event.Result, event.Error = ResultShort, err.Error()
		m.publish(event)
		return
	}
	event.SSRC = header.SSRC
	event.SequenceNumber = header.SequenceNumber
	event.PayloadType = uint8(header.PayloadType)

	s := m.ensureSession(stream, header.SSRC)
	packet := &srtp.RTPPacket{
		Data:           buf,
		Payload:        buf[payloadOffset:],
		SequenceNumber: header.SequenceNumber,
		SSRC:           header.SSRC,
	}
	if err := s.session.UnprotectRTP(packet); err != nil {
		s.failures++
		m.fail(&event, err)
		logging.Warningf(logging.ProtoSRTP, "Stream <u>%s</u> SSRC 0x%08x seq %d: %s", stream.Name, header.SSRC, header.SequenceNumber, err)
		m.publish(event)
		return
	}
	s.lastSequence = header.SequenceNumber
	m.Stats.RtpDecrypted.Inc()
	m.Stats.DecryptedBytes.Add(uint64(len(packet.Payload)))
	event.Result = ResultDecrypted
	event.Length = len(packet.Data)
	event.Payload = packet.Payload
	logging.Descf(logging.ProtoSRTP, "Decrypted stream <u>%s</u> SSRC 0x%08x seq <u>%d</u>, %d payload bytes", stream.Name, header.SSRC, header.SequenceNumber, len(packet.Payload))
	m.publish(event)
}

func (m *Manager) handleRTCP(d capture.Datagram, stream *Stream, buf []byte) {
	header, bodyOffset, err := rtcp.DecodeHeader(buf, 0, len(buf))
	event := Event{Time: d.Timestamp, Stream: stream.Name, Kind: KindRTCP, Length: len(buf)}
	if err != nil {
		m.Stats.ShortPackets.Inc()
		event.Result, event.Error = ResultShort, err.Error()
		m.publish(event)
		return
	}
	event.SSRC = header.SSRC
	event.PayloadType = uint8(header.PacketType)

	s := m.ensureSession(stream, header.SSRC)
	out, err := s.session.UnprotectRTCP(buf)
	if err != nil {
		s.failures++
		m.fail(&event, err)
		logging.Warningf(logging.ProtoSRTCP, "Stream <u>%s</u> SSRC 0x%08x %s: %s", stream.Name, header.SSRC, header.PacketType, err)
		m.publish(event)
		return
	}
	m.Stats.RtcpDecrypted.Inc()
	m.Stats.DecryptedBytes.Add(uint64(len(out) - bodyOffset))
	event.Result = ResultDecrypted
	event.Length = len(out)
	event.Payload = out[bodyOffset:]
	logging.Descf(logging.ProtoSRTCP, "Decrypted stream <u>%s</u> SSRC 0x%08x <u>%s</u>", stream.Name, header.SSRC, header.PacketType)
	m.publish(event)
}

func (m *Manager) fail(event *Event, err error) {
	event.Error = err.Error()
	switch {
	case errors.Is(err, srtp.ErrAuthFailed):
		m.Stats.AuthFailures.Inc()
		event.Result = ResultAuthFailed
	case errors.Is(err, srtp.ErrReplayed):
		m.Stats.Replays.Inc()
		event.Result = ResultReplayed
	case errors.Is(err, srtp.ErrShortPacket):
		m.Stats.ShortPackets.Inc()
		event.Result = ResultShort
	case errors.Is(err, srtp.ErrSessionNotReady):
		m.Stats.SessionFailures.Inc()
		event.Result = ResultSessionFailed
	default:
		m.Stats.OtherFailures.Inc()
		event.Result = ResultFailed
	}
}

func (m *Manager) publish(event Event) {
	for _, observer := range m.observers {
		observer(event)
	}
}
