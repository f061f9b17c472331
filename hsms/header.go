package hsms

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the size of the HSMS message header in bytes.
	HeaderSize = 10
	// LengthFieldSize is the size of the frame length prefix in bytes.
	LengthFieldSize = 4
	// MaxStreamCode is the largest stream code that fits the 7 low bits of the stream byte.
	MaxStreamCode = 0x7F
)

// Header is the 10-byte HSMS message header.
//
// Wire layout, all multi-byte fields big-endian:
//
//	bytes 0-1: session id
//	byte  2:   W-bit (bit 7) | stream (bits 0-6)
//	byte  3:   function
//	byte  4:   ptype, 0 for SECS-II
//	byte  5:   stype
//	bytes 6-9: system bytes
type Header struct {
	SessionID   uint16
	Stream      uint8 // 0-127
	WBit        bool
	Function    uint8
	PType       uint8
	SType       SType
	SystemBytes uint32
}

// Bytes returns the encoded header.
func (h Header) Bytes() [HeaderSize]byte {
	var b [HeaderSize]byte
	binary.BigEndian.PutUint16(b[0:2], h.SessionID)
	b[2] = h.Stream & MaxStreamCode
	if h.WBit {
		b[2] |= 0x80
	}
	b[3] = h.Function
	b[4] = h.PType
	b[5] = byte(h.SType)
	binary.BigEndian.PutUint32(b[6:10], h.SystemBytes)

	return b
}

// AppendTo appends the encoded header to dst.
func (h Header) AppendTo(dst []byte) []byte {
	b := h.Bytes()
	return append(dst, b[:]...)
}

// DecodeHeader decodes the first 10 bytes of b.
//
// It returns an error wrapping ErrMalformedFrame if b is shorter than HeaderSize.
// An unknown stype byte is kept as a data message type.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrMalformedFrame, HeaderSize, len(b))
	}

	return Header{
		SessionID:   binary.BigEndian.Uint16(b[0:2]),
		Stream:      b[2] & MaxStreamCode,
		WBit:        b[2]&0x80 != 0,
		Function:    b[3],
		PType:       b[4],
		SType:       MessageType(b[5]),
		SystemBytes: binary.BigEndian.Uint32(b[6:10]),
	}, nil
}
