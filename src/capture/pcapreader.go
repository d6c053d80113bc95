package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
	"github.com/rajinda/sniffer/src/logging"
)

const pcapngMagic = 0x0A0D0D0A

// PcapReader replays the UDP datagrams of a pcap or pcapng capture file.
type PcapReader struct {
	FileName string

	Packets uint64
	Skipped uint64
}

func NewPcapReader(fileName string) *PcapReader {
	return &PcapReader{FileName: fileName}
}

type packetReader interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

func openPacketReader(r io.Reader) (packetReader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, errors.Wrap(err, "read capture magic")
	}
	if binary.LittleEndian.Uint32(magic) == pcapngMagic {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, errors.Wrap(err, "new pcapng reader")
		}
		return ng, nil
	}
	reader, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, errors.Wrap(err, "new pcap reader")
	}
	return reader, nil
}

func (p *PcapReader) Run(ctx context.Context, handler Handler) error {
	f, err := os.Open(p.FileName)
	if err != nil {
		return errors.Wrapf(err, "open pcap %v", p.FileName)
	}
	defer f.Close()
	return p.read(ctx, f, handler)
}

func (p *PcapReader) read(ctx context.Context, r io.Reader, handler Handler) error {
	reader, err := openPacketReader(r)
	if err != nil {
		return errors.Wrapf(err, "open pcap %v", p.FileName)
	}
	logging.Infof(logging.ProtoPCAP, "Reading <u>%s</u>, link type <u>%s</u>", p.FileName, reader.LinkType())

	source := gopacket.NewPacketSource(reader, reader.LinkType())
	source.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		packet, err := source.NextPacket()
		if err == io.EOF {
			logging.Infof(logging.ProtoPCAP, "End of <u>%s</u>: %d packets, %d skipped", p.FileName, p.Packets, p.Skipped)
			return nil
		}
		if err != nil {
			// pcapgo reports truncated trailing records this way.
			if errors.Is(err, io.ErrUnexpectedEOF) {
				logging.Warningf(logging.ProtoPCAP, "Truncated capture <u>%s</u> after %d packets", p.FileName, p.Packets)
				return nil
			}
			p.Skipped++
			logging.Warningf(logging.ProtoPCAP, "Skipping undecodable packet: %s", err)
			continue
		}
		p.Packets++

		datagram, ok := udpDatagram(packet)
		if !ok {
			p.Skipped++
			continue
		}
		handler(datagram)
	}
}

// udpDatagram extracts the UDP payload and both endpoints of packet.
func udpDatagram(packet gopacket.Packet) (Datagram, bool) {
	udpLayer, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if !ok || len(udpLayer.Payload) == 0 {
		return Datagram{}, false
	}
	var srcIP, dstIP net.IP
	if ip4, ok := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4); ok {
		srcIP, dstIP = ip4.SrcIP, ip4.DstIP
	} else if ip6, ok := packet.Layer(layers.LayerTypeIPv6).(*layers.IPv6); ok {
		srcIP, dstIP = ip6.SrcIP, ip6.DstIP
	} else {
		return Datagram{}, false
	}
	return Datagram{
		Timestamp: packet.Metadata().CaptureInfo.Timestamp,
		Src:       &net.UDPAddr{IP: srcIP, Port: int(udpLayer.SrcPort)},
		Dst:       &net.UDPAddr{IP: dstIP, Port: int(udpLayer.DstPort)},
		Payload:   udpLayer.Payload,
	}, true
}
