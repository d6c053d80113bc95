package capture

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Datagram is one UDP payload seen on the wire. Payload is only valid during
// the handler call; handlers that keep it must copy.
type Datagram struct {
	Timestamp time.Time
	Src       *net.UDPAddr
	Dst       *net.UDPAddr
	Payload   []byte
}

func (d Datagram) String() string {
	return fmt.Sprintf("%s -> %s (%d bytes)", d.Src, d.Dst, len(d.Payload))
}

type Handler func(Datagram)

// Source delivers datagrams to handler until ctx is done or the input ends.
type Source interface {
	Run(ctx context.Context, handler Handler) error
}
