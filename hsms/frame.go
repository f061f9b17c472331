package hsms

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/arloliu/go-hsms/secs2"
)

// DefaultMaxFrameSize is the default upper bound of the length prefix.
const DefaultMaxFrameSize = secs2.MaxByteSize

// FrameCodec reads and writes length-prefixed HSMS frames: a 4-byte big-endian length followed by
// that many bytes of header and body.
//
// A FrameCodec holds no per-stream state and can be shared between goroutines.
type FrameCodec struct {
	maxFrameSize uint32
}

// NewFrameCodec creates a FrameCodec accepting frames up to maxFrameSize bytes, excluding the
// length prefix. Zero selects DefaultMaxFrameSize.
func NewFrameCodec(maxFrameSize uint32) *FrameCodec {
	if maxFrameSize == 0 {
		maxFrameSize = DefaultMaxFrameSize
	}

	return &FrameCodec{maxFrameSize: maxFrameSize}
}

// MaxFrameSize returns the largest accepted frame length.
func (c *FrameCodec) MaxFrameSize() uint32 {
	return c.maxFrameSize
}

// EncodeFrame serializes msg with its length prefix.
func (c *FrameCodec) EncodeFrame(msg *Message) ([]byte, error) {
	frame := make([]byte, LengthFieldSize, LengthFieldSize+HeaderSize+64)

	frame, err := msg.AppendTo(frame)
	if err != nil {
		return nil, err
	}

	length := len(frame) - LengthFieldSize
	if uint64(length) > uint64(c.maxFrameSize) {
		return nil, fmt.Errorf("%w: frame length %d exceeds %d", ErrMalformedFrame, length, c.maxFrameSize)
	}
	binary.BigEndian.PutUint32(frame[:LengthFieldSize], uint32(length)) //nolint:gosec

	return frame, nil
}

// WriteFrame encodes msg and writes the frame to w with a single Write call.
func (c *FrameCodec) WriteFrame(w io.Writer, msg *Message) error {
	frame, err := c.EncodeFrame(msg)
	if err != nil {
		return err
	}

	_, err = w.Write(frame)

	return err
}

// ReadFrame blocks until a complete frame is read from r, and returns the frame without its
// length prefix.
//
// io.EOF is returned as-is when r ends before the first length byte. A length smaller than
// HeaderSize or greater than the maximum frame size results in an error wrapping ErrMalformedFrame.
func (c *FrameCodec) ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [LengthFieldSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length < HeaderSize || length > c.maxFrameSize {
		return nil, fmt.Errorf("%w: invalid frame length %d", ErrMalformedFrame, length)
	}

	frame := make([]byte, length)
	if _, err := io.ReadFull(r, frame); err != nil {
		if err == io.EOF { //nolint:errorlint
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return frame, nil
}

// DecodeFrame decodes a frame returned by ReadFrame.
func (c *FrameCodec) DecodeFrame(frame []byte) (*Message, error) {
	return DecodeMessage(frame)
}
