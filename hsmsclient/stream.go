package hsmsclient

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/arloliu/go-hsms/hsms"
)

// Stream is a duplex, frame-oriented byte stream to the equipment.
//
// ReadFrame is called from a single receiver goroutine. WriteFrame calls are serialized by the client.
// Close must unblock a pending ReadFrame.
type Stream interface {
	// ReadFrame blocks until a complete frame is available and returns it without the length prefix.
	ReadFrame() ([]byte, error)
	// WriteFrame writes a complete frame, length prefix included.
	WriteFrame(frame []byte) error
	// Close closes the stream.
	Close() error
}

// Dialer opens a Stream to address.
type Dialer interface {
	Dial(ctx context.Context, address string, timeout time.Duration) (Stream, error)
}

// TCPDialer is the default Dialer, it opens TCP connections with TCP_NODELAY and keep-alive enabled.
type TCPDialer struct {
	codec     *hsms.FrameCodec
	t8Timeout time.Duration
	keepAlive time.Duration
}

var _ Dialer = (*TCPDialer)(nil)

// NewTCPDialer creates a TCPDialer reading frames up to maxFrameSize bytes, with t8Timeout applied
// to payload reads and frame writes.
func NewTCPDialer(maxFrameSize uint32, t8Timeout time.Duration) *TCPDialer {
	return &TCPDialer{
		codec:     hsms.NewFrameCodec(maxFrameSize),
		t8Timeout: t8Timeout,
		keepAlive: 15 * time.Second,
	}
}

// Dial implements Dialer.
func (d *TCPDialer) Dial(ctx context.Context, address string, timeout time.Duration) (Stream, error) {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: d.keepAlive}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set TCP_NODELAY: %w", err)
		}
	}

	return newTCPStream(conn, d.codec, d.t8Timeout), nil
}

type tcpStream struct {
	conn      net.Conn
	codec     *hsms.FrameCodec
	reader    *t8Reader
	t8Timeout time.Duration
	closeOnce sync.Once
	closeErr  error
}

func newTCPStream(conn net.Conn, codec *hsms.FrameCodec, t8Timeout time.Duration) *tcpStream {
	return &tcpStream{
		conn:      conn,
		codec:     codec,
		reader:    &t8Reader{conn: conn, r: bufio.NewReader(conn), t8Timeout: t8Timeout},
		t8Timeout: t8Timeout,
	}
}

// ReadFrame waits for the length prefix without a deadline, the connection may idle between
// frames. The payload must arrive within T8.
func (s *tcpStream) ReadFrame() ([]byte, error) {
	if err := s.reader.reset(); err != nil {
		return nil, fmt.Errorf("clear read deadline: %w", err)
	}

	return s.codec.ReadFrame(s.reader)
}

func (s *tcpStream) WriteFrame(frame []byte) error {
	if s.t8Timeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.t8Timeout)); err != nil {
			return fmt.Errorf("set T8 deadline: %w", err)
		}
	}

	_, err := s.conn.Write(frame)

	return err
}

func (s *tcpStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})

	return s.closeErr
}

// t8Reader arms the T8 read deadline once the length prefix of a frame has been consumed.
type t8Reader struct {
	conn      net.Conn
	r         *bufio.Reader
	t8Timeout time.Duration
	consumed  int
	armed     bool
}

func (r *t8Reader) reset() error {
	r.consumed = 0
	r.armed = false

	return r.conn.SetReadDeadline(time.Time{})
}

func (r *t8Reader) Read(p []byte) (int, error) {
	if !r.armed && r.consumed >= hsms.LengthFieldSize && r.t8Timeout > 0 {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.t8Timeout)); err != nil {
			return 0, fmt.Errorf("set T8 deadline: %w", err)
		}
		r.armed = true
	}

	n, err := r.r.Read(p)
	r.consumed += n

	return n, err
}
