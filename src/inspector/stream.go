package inspector

import (
	"fmt"
	"net"

	"github.com/pkg/errors"
	"github.com/rajinda/sniffer/src/config"
	"github.com/rajinda/sniffer/src/srtp"
)

// Stream is one negotiated media endpoint and the SDES key announced for it.
// RTCP is expected on Port+1, or on Port itself when rtcp-mux is in use.
type Stream struct {
	Name    string
	Address net.IP
	Port    int
	Suite   string
	SdesKey string
	Mode    srtp.Mode
}

func StreamFromConfig(cfg config.StreamConfigurations) (*Stream, error) {
	mode, err := srtp.ParseMode(cfg.Mode)
	if err != nil {
		return nil, errors.Wrapf(err, "stream %s", cfg.Name)
	}
	result := &Stream{
		Name:    cfg.Name,
		Port:    cfg.Port,
		Suite:   cfg.Suite,
		SdesKey: cfg.SdesKey,
		Mode:    mode,
	}
	if cfg.Address != "" {
		result.Address = net.ParseIP(cfg.Address)
		if result.Address == nil {
			return nil, errors.Errorf("stream %s: invalid address %q", cfg.Name, cfg.Address)
		}
	}
	return result, nil
}

// Matches reports whether addr is this stream's RTP or RTCP endpoint.
func (s *Stream) Matches(addr *net.UDPAddr) bool {
	if addr == nil {
		return false
	}
	if s.Address != nil && !s.Address.Equal(addr.IP) {
		return false
	}
	return addr.Port == s.Port || addr.Port == s.Port+1
}

func (s *Stream) String() string {
	address := "*"
	if s.Address != nil {
		address = s.Address.String()
	}
	return fmt.Sprintf("%s (%s:%d, %s, %s)", s.Name, address, s.Port, s.Suite, s.Mode)
}
