package rtp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	headerLength          = 12
	extensionHeaderLength = 4
)

var ErrHeaderTooShort = errors.New("rtp: buffer too short for header")

type PayloadType byte

type Header struct {
	Version          byte
	Padding          bool
	Extension        bool
	Marker           bool
	PayloadType      PayloadType
	SequenceNumber   uint16
	Timestamp        uint32
	SSRC             uint32
	CSRC             []uint32
	ExtensionProfile uint16
	ExtensionPayload []byte

	RawData []byte
}

/*
	0                   1                   2                   3
	0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|V=2|P|X|  CC   |M|     PT      |       Sequence Number         |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|                           Timestamp                           |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|           Synchronization Source (SSRC) identifier            |
	+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
	|            Contributing Source (CSRC) identifiers             |
	|                             ....                              |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|      defined by profile       |           length              |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|                        header extension                       |
	|                             ....                              |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|                            Payload                            |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
*/

func IsRtpPacket(buf []byte, offset int, arrayLen int) bool {
	if arrayLen < headerLength || buf[offset]>>6 != 2 {
		return false
	}
	// https://csperkins.org/standards/ietf-67/2006-11-07-IETF67-AVT-rtp-rtcp-mux.pdf
	// Initial segment of RTP header; 7 bit payload
	// type; values 0...35 and 96...127 usually used
	payloadType := buf[offset+1] & 0b01111111
	return (payloadType <= 35) || (payloadType >= 96 && payloadType <= 127)
}

// DecodeHeader parses the fixed header, CSRC list and header extension. The
// returned offset points at the first payload byte, which is where SRTP
// encryption starts.
func DecodeHeader(buf []byte, offset int, arrayLen int) (*Header, int, error) {
	end := offset + arrayLen
	if arrayLen < headerLength || end > len(buf) {
		return nil, offset, fmt.Errorf("%w: %d bytes", ErrHeaderTooShort, arrayLen)
	}
	result := new(Header)
	offsetBackup := offset
	firstByte := buf[offset]
	offset++
	result.Version = firstByte & 0b11000000 >> 6
	result.Padding = (firstByte & 0b00100000 >> 5) == 1
	result.Extension = (firstByte & 0b00010000 >> 4) == 1
	csrcCount := int(firstByte & 0b00001111)

	secondByte := buf[offset]
	offset++
	result.Marker = (secondByte & 0b10000000 >> 7) == 1
	result.PayloadType = PayloadType(secondByte & 0b01111111)

	result.SequenceNumber = binary.BigEndian.Uint16(buf[offset : offset+2])
	offset += 2
	result.Timestamp = binary.BigEndian.Uint32(buf[offset : offset+4])
	offset += 4
	result.SSRC = binary.BigEndian.Uint32(buf[offset : offset+4])
	offset += 4

	if offset+csrcCount*4 > end {
		return nil, offset, fmt.Errorf("%w: %d csrc entries", ErrHeaderTooShort, csrcCount)
	}
	result.CSRC = make([]uint32, csrcCount)
	for i := 0; i < csrcCount; i++ {
		result.CSRC[i] = binary.BigEndian.Uint32(buf[offset : offset+4])
		offset += 4
	}

	if result.Extension {
		if offset+extensionHeaderLength > end {
			return nil, offset, fmt.Errorf("%w: extension header", ErrHeaderTooShort)
		}
		result.ExtensionProfile = binary.BigEndian.Uint16(buf[offset : offset+2])
		extensionLength := int(binary.BigEndian.Uint16(buf[offset+2:offset+4])) * 4
		offset += extensionHeaderLength
		if offset+extensionLength > end {
			return nil, offset, fmt.Errorf("%w: extension of %d bytes", ErrHeaderTooShort, extensionLength)
		}
		result.ExtensionPayload = buf[offset : offset+extensionLength]
		offset += extensionLength
	}
	result.RawData = buf[offsetBackup:offset]
	return result, offset, nil
}

func (pt PayloadType) String() string {
	return fmt.Sprintf("PT %d", byte(pt))
}

func (h *Header) String() string {
	return fmt.Sprintf("RTP Version: %d, SSRC: 0x%08x, Payload Type: %s, Seq Number: %d, CSRC Count: %d, Marker: %v",
		h.Version, h.SSRC, h.PayloadType, h.SequenceNumber, len(h.CSRC), h.Marker)
}
