package hsmsclient

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/arloliu/go-hsms/hsms"
	"github.com/arloliu/go-hsms/secs2"
)

// FuzzTCPStream_ReadFrame pipes arbitrary bytes into tcpStream.ReadFrame and decodes whatever
// frame comes out, as the receiver task does. Neither step may panic.
func FuzzTCPStream_ReadFrame(f *testing.F) {
	codec := hsms.NewFrameCodec(0)

	linktest, err := codec.EncodeFrame(hsms.NewLinktestReq(1))
	if err != nil {
		f.Fatal(err)
	}
	f.Add(linktest)

	// zero length
	f.Add([]byte{0x00, 0x00, 0x00, 0x00})
	// incomplete length prefix
	f.Add([]byte{0x00, 0x01})
	f.Add([]byte{})

	// payload too short for a header
	short := make([]byte, 9)
	binary.BigEndian.PutUint32(short[:4], 5)
	copy(short[4:], []byte{0x01, 0x02, 0x03, 0x04, 0x05})
	f.Add(short)

	oversized := make([]byte, 4)
	binary.BigEndian.PutUint32(oversized, 0xFFFFFFFF)
	f.Add(oversized)

	boundary := make([]byte, 4)
	binary.BigEndian.PutUint32(boundary, secs2.MaxByteSize)
	f.Add(boundary)

	// S1F1 W with an ASCII item
	s1f1 := []byte{
		0x00, 0x01, 0x81, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03,
		0x41, 0x05, 'h', 'e', 'l', 'l', 'o',
	}
	frame := make([]byte, 4+len(s1f1))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(s1f1))) //nolint:gosec
	copy(frame[4:], s1f1)
	f.Add(frame)

	f.Fuzz(func(t *testing.T, data []byte) {
		local, remote := net.Pipe()

		go func() {
			defer remote.Close()
			_, _ = remote.Write(data)
		}()

		stream := newTCPStream(local, codec, 50*time.Millisecond)
		defer stream.Close()

		payload, err := stream.ReadFrame()
		if err != nil {
			return
		}

		if len(payload) < hsms.HeaderSize {
			t.Fatalf("ReadFrame returned a %d byte payload", len(payload))
		}

		_, _ = hsms.DecodeMessage(payload)
	})
}
