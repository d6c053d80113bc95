package capture

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var captureStart = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func udpFrame(t *testing.T, src, dst *net.UDPAddr, payload []byte) []byte {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    src.IP.To4(),
		DstIP:    dst.IP.To4(),
	}
	udp := &layers.UDP{SrcPort: layers.UDPPort(src.Port), DstPort: layers.UDPPort(dst.Port)}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)))
	return buf.Bytes()
}

func tcpFrame(t *testing.T) []byte {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolTCP, SrcIP: net.IP{10, 0, 0, 1}, DstIP: net.IP{10, 0, 0, 2}}
	tcp := &layers.TCP{SrcPort: 5060, DstPort: 5060, SYN: true}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, tcp))
	return buf.Bytes()
}

func writePcap(t *testing.T, frames [][]byte) string {
	var out bytes.Buffer
	w := pcapgo.NewWriter(&out)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	for i, frame := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     captureStart.Add(time.Duration(i) * 20 * time.Millisecond),
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		require.NoError(t, w.WritePacket(ci, frame))
	}
	path := filepath.Join(t.TempDir(), "capture.pcap")
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o600))
	return path
}

func TestPcapReaderYieldsUdpDatagrams(t *testing.T) {
	alice := &net.UDPAddr{IP: net.IP{192, 168, 1, 20}, Port: 40000}
	bob := &net.UDPAddr{IP: net.IP{192, 168, 1, 30}, Port: 50000}

	path := writePcap(t, [][]byte{
		udpFrame(t, alice, bob, []byte{0x80, 0, 0, 1}),
		tcpFrame(t),
		udpFrame(t, bob, alice, []byte{0x80, 0, 0, 2, 0xff}),
	})

	var got []Datagram
	reader := NewPcapReader(path)
	err := reader.Run(context.Background(), func(d Datagram) {
		d.Payload = append([]byte{}, d.Payload...)
		got = append(got, d)
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, alice.String(), got[0].Src.String())
	assert.Equal(t, bob.String(), got[0].Dst.String())
	assert.Equal(t, []byte{0x80, 0, 0, 1}, got[0].Payload)
	assert.True(t, captureStart.Equal(got[0].Timestamp))

	assert.Equal(t, bob.String(), got[1].Src.String())
	assert.Equal(t, []byte{0x80, 0, 0, 2, 0xff}, got[1].Payload)
	assert.True(t, captureStart.Add(40*time.Millisecond).Equal(got[1].Timestamp))

	assert.Equal(t, uint64(3), reader.Packets)
	assert.Equal(t, uint64(1), reader.Skipped)
}

func TestPcapReaderStopsOnCancel(t *testing.T) {
	a := &net.UDPAddr{IP: net.IP{10, 0, 0, 1}, Port: 1000}
	b := &net.UDPAddr{IP: net.IP{10, 0, 0, 2}, Port: 2000}
	path := writePcap(t, [][]byte{udpFrame(t, a, b, []byte{1}), udpFrame(t, a, b, []byte{2})})

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	err := NewPcapReader(path).Run(ctx, func(Datagram) {
		count++
		cancel()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, count)
}

func TestPcapReaderErrors(t *testing.T) {
	err := NewPcapReader(filepath.Join(t.TempDir(), "missing.pcap")).Run(context.Background(), func(Datagram) {})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "garbage.pcap")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a capture file"), 0o600))
	err = NewPcapReader(path).Run(context.Background(), func(Datagram) {})
	assert.Error(t, err)
}
