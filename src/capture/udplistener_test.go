package capture

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUdpListenerDeliversDatagrams(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewUdpListener("127.0.0.1", 0)
	received := make(chan Datagram, 1)
	done := make(chan error, 1)
	go func() {
		done <- listener.Run(ctx, func(d Datagram) {
			d.Payload = append([]byte{}, d.Payload...)
			received <- d
		})
	}()

	select {
	case <-listener.Listening():
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not start")
	}

	conn, err := net.DialUDP("udp", nil, listener.LocalAddr())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte{0x80, 0x60, 0x00, 0x01})
	require.NoError(t, err)

	select {
	case d := <-received:
		assert.Equal(t, []byte{0x80, 0x60, 0x00, 0x01}, d.Payload)
		assert.Equal(t, conn.LocalAddr().String(), d.Src.String())
		assert.Equal(t, listener.LocalAddr().Port, d.Dst.Port)
	case <-time.After(2 * time.Second):
		t.Fatal("no datagram received")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}
