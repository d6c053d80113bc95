package capture

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/rajinda/sniffer/src/logging"
)

// UdpListener receives mirrored traffic, e.g. from a switch SPAN port
// forwarder or an rtpengine recording tap, one original datagram per UDP
// packet. The sender address is taken as the datagram source and the
// listening address as its destination.
type UdpListener struct {
	Ip   string
	Port int

	conn      *net.UDPConn
	listening chan struct{}
}

func NewUdpListener(ip string, port int) *UdpListener {
	return &UdpListener{
		Ip:        ip,
		Port:      port,
		listening: make(chan struct{}),
	}
}

// Listening is closed once Run has bound the socket.
func (udpListener *UdpListener) Listening() <-chan struct{} {
	return udpListener.listening
}

// LocalAddr must not be called before Listening is closed.
func (udpListener *UdpListener) LocalAddr() *net.UDPAddr {
	return udpListener.conn.LocalAddr().(*net.UDPAddr)
}

func (udpListener *UdpListener) Run(ctx context.Context, handler Handler) error {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{
		IP:   net.ParseIP(udpListener.Ip),
		Port: udpListener.Port,
	})
	if err != nil {
		return errors.Wrapf(err, "listen udp %s:%d", udpListener.Ip, udpListener.Port)
	}
	udpListener.conn = conn
	defer conn.Close()
	close(udpListener.listening)

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	logging.Infof(logging.ProtoUDP, "Listen on <u>%s/UDP</u>", localAddr)
	logging.Descf(logging.ProtoUDP, "Every datagram arriving here is treated as a copy of captured media traffic.")

	buf := make([]byte, 2048)

	for {
		bufLen, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logging.Errorf(logging.ProtoUDP, "Some error: %s", err)
			continue
		}
		handler(Datagram{
			Timestamp: time.Now(),
			Src:       addr,
			Dst:       localAddr,
			Payload:   buf[:bufLen],
		})
	}
}
