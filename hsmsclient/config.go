package hsmsclient

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/go-hsms/hsms"
	"github.com/arloliu/go-hsms/logger"
)

const (
	// DefaultConnectTimeout is the default connect timeout (T4).
	DefaultConnectTimeout = 30 * time.Second
	// DefaultT6Timeout is the default control transaction timeout.
	DefaultT6Timeout = 5 * time.Second
	// DefaultT8Timeout is the default network inter-character timeout.
	DefaultT8Timeout = 5 * time.Second
	// DefaultLinktestInterval is the default interval between linktest requests.
	DefaultLinktestInterval = 3 * time.Second
	// DefaultCloseTimeout is the default time to wait for the connection tasks to exit.
	DefaultCloseTimeout = 3 * time.Second
	// DefaultEventBacklogWarn is the default subscriber backlog that triggers the first warning.
	DefaultEventBacklogWarn = 1024
)

// ConnectionConfig represents the configuration parameters of an HSMS-SS client connection.
//
// A ConnectionConfig is immutable once created by NewConnectionConfig.
type ConnectionConfig struct {
	// host specifies the host of the remote HSMS equipment.
	host string

	// port specifies the TCP port number of the remote HSMS equipment.
	port int

	// sessionID is the device id used in data message headers.
	// Defaults to 0.
	sessionID uint16

	// connectTimeout defines the timeout for establishing the TCP connection (T4).
	// Defaults to 30 seconds.
	connectTimeout time.Duration

	// t3Timeout defines the reply timeout (T3) of data requests.
	// Defaults to the connect timeout when not set.
	t3Timeout time.Duration
	// t6Timeout defines the control transaction timeout (T6) of select and linktest requests.
	// Defaults to 5 seconds.
	t6Timeout time.Duration
	// t8Timeout defines the inter-character timeout (T8) applied to frame payload reads and writes.
	// Defaults to 5 seconds.
	t8Timeout time.Duration

	// linktestInterval defines the interval between linktest requests. Zero disables linktest.
	// Defaults to 3 seconds.
	linktestInterval time.Duration

	// closeTimeout defines how long Disconnect waits for the connection tasks to exit.
	// Defaults to 3 seconds.
	closeTimeout time.Duration

	// maxFrameSize limits the length prefix of inbound and outbound frames.
	// Defaults to hsms.DefaultMaxFrameSize.
	maxFrameSize uint32

	// eventBacklogWarn is the subscriber backlog size that triggers the first warning,
	// the following warnings are logged each time the backlog doubles.
	// Defaults to 1024.
	eventBacklogWarn int

	logger   logger.Logger
	dialer   Dialer
	registry *Registry
}

// NewConnectionConfig creates a new HSMS-SS client configuration with the given host, port number,
// and optional functional options.
//
// It initializes a ConnectionConfig with default values and then applies the provided options.
// See the various WithXXX functions for available configuration options.
func NewConnectionConfig(host string, port int, opts ...ConnOption) (*ConnectionConfig, error) {
	cfg := &ConnectionConfig{
		connectTimeout:   DefaultConnectTimeout,
		t6Timeout:        DefaultT6Timeout,
		t8Timeout:        DefaultT8Timeout,
		linktestInterval: DefaultLinktestInterval,
		closeTimeout:     DefaultCloseTimeout,
		maxFrameSize:     hsms.DefaultMaxFrameSize,
		eventBacklogWarn: DefaultEventBacklogWarn,
		logger:           logger.GetLogger(),
	}

	if err := withRemoteHost(host).apply(cfg); err != nil {
		return cfg, err
	}

	if err := withPort(port).apply(cfg); err != nil {
		return cfg, err
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// Host returns the remote host.
func (cfg *ConnectionConfig) Host() string { return cfg.host }

// Port returns the remote port.
func (cfg *ConnectionConfig) Port() int { return cfg.port }

// Address returns the "host:port" address of the remote equipment, also used as the registry key.
func (cfg *ConnectionConfig) Address() string {
	return net.JoinHostPort(cfg.host, strconv.Itoa(cfg.port))
}

// SessionID returns the device id used in data message headers.
func (cfg *ConnectionConfig) SessionID() uint16 { return cfg.sessionID }

// ConnectTimeout returns the T4 connect timeout.
func (cfg *ConnectionConfig) ConnectTimeout() time.Duration { return cfg.connectTimeout }

// T3Timeout returns the reply timeout, which falls back to the connect timeout when not set.
func (cfg *ConnectionConfig) T3Timeout() time.Duration {
	if cfg.t3Timeout == 0 {
		return cfg.connectTimeout
	}

	return cfg.t3Timeout
}

// T6Timeout returns the control transaction timeout.
func (cfg *ConnectionConfig) T6Timeout() time.Duration { return cfg.t6Timeout }

// T8Timeout returns the inter-character timeout.
func (cfg *ConnectionConfig) T8Timeout() time.Duration { return cfg.t8Timeout }

// LinktestInterval returns the interval between linktest requests, zero if linktest is disabled.
func (cfg *ConnectionConfig) LinktestInterval() time.Duration { return cfg.linktestInterval }

// CloseTimeout returns how long Disconnect waits for the connection tasks to exit.
func (cfg *ConnectionConfig) CloseTimeout() time.Duration { return cfg.closeTimeout }

// MaxFrameSize returns the frame length limit.
func (cfg *ConnectionConfig) MaxFrameSize() uint32 { return cfg.maxFrameSize }

// EventBacklogWarn returns the backlog size that triggers the first subscriber backlog warning.
func (cfg *ConnectionConfig) EventBacklogWarn() int { return cfg.eventBacklogWarn }

// Logger returns the configured logger.
func (cfg *ConnectionConfig) Logger() logger.Logger { return cfg.logger }

// Registry returns the registry the client joins while connected, or nil.
func (cfg *ConnectionConfig) Registry() *Registry { return cfg.registry }

// ConnOption represents a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc struct {
	name      string
	applyFunc func(*ConnectionConfig) error
}

func (c *connOptFunc) apply(cfg *ConnectionConfig) error {
	if cfg == nil {
		return hsms.ErrConnConfigNil
	}

	if err := c.applyFunc(cfg); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}

	return nil
}

func newConnOptFunc(name string, f func(*ConnectionConfig) error) *connOptFunc {
	return &connOptFunc{name: name, applyFunc: f}
}

func withRemoteHost(host string) ConnOption {
	return newConnOptFunc("withRemoteHost", func(cfg *ConnectionConfig) error {
		if ip := net.ParseIP(host); ip != nil {
			cfg.host = host
			return nil
		}

		host = strings.Trim(host, ".")
		if host == "" {
			return errors.New("empty host")
		}

		if _, err := net.LookupHost(host); err != nil {
			return fmt.Errorf("invalid host %q: %w", host, err)
		}
		cfg.host = host

		return nil
	})
}

func withPort(port int) ConnOption {
	return newConnOptFunc("withPort", func(cfg *ConnectionConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port is out of range [1, 65535]")
		}
		cfg.port = port

		return nil
	})
}

func checkDuration(d time.Duration, upper time.Duration) error {
	if d <= 0 || d > upper {
		return fmt.Errorf("duration %v is out of range (0, %v]", d, upper)
	}

	return nil
}

// WithSessionID sets the session id (device id) of data messages.
//
// The default value is 0.
func WithSessionID(id uint16) ConnOption {
	return newConnOptFunc("WithSessionID", func(cfg *ConnectionConfig) error {
		cfg.sessionID = id
		return nil
	})
}

// WithConnectTimeout sets the T4 connect timeout. It should be in range of (0, 240s].
//
// The default value is 30 seconds.
func WithConnectTimeout(d time.Duration) ConnOption {
	return newConnOptFunc("WithConnectTimeout", func(cfg *ConnectionConfig) error {
		if err := checkDuration(d, 240*time.Second); err != nil {
			return err
		}
		cfg.connectTimeout = d

		return nil
	})
}

// WithT3Timeout sets the T3 reply timeout of data requests. It should be in range of (0, 120s].
//
// The default value is the connect timeout.
func WithT3Timeout(d time.Duration) ConnOption {
	return newConnOptFunc("WithT3Timeout", func(cfg *ConnectionConfig) error {
		if err := checkDuration(d, 120*time.Second); err != nil {
			return err
		}
		cfg.t3Timeout = d

		return nil
	})
}

// WithT6Timeout sets the T6 control transaction timeout. It should be in range of (0, 240s].
//
// The default value is 5 seconds.
func WithT6Timeout(d time.Duration) ConnOption {
	return newConnOptFunc("WithT6Timeout", func(cfg *ConnectionConfig) error {
		if err := checkDuration(d, 240*time.Second); err != nil {
			return err
		}
		cfg.t6Timeout = d

		return nil
	})
}

// WithT8Timeout sets the T8 inter-character timeout. It should be in range of (0, 120s].
//
// The default value is 5 seconds.
func WithT8Timeout(d time.Duration) ConnOption {
	return newConnOptFunc("WithT8Timeout", func(cfg *ConnectionConfig) error {
		if err := checkDuration(d, 120*time.Second); err != nil {
			return err
		}
		cfg.t8Timeout = d

		return nil
	})
}

// WithLinktestInterval sets the interval between linktest requests. Zero disables linktest.
//
// The default value is 3 seconds.
func WithLinktestInterval(d time.Duration) ConnOption {
	return newConnOptFunc("WithLinktestInterval", func(cfg *ConnectionConfig) error {
		if d < 0 {
			return fmt.Errorf("negative interval %v", d)
		}
		cfg.linktestInterval = d

		return nil
	})
}

// WithCloseTimeout sets how long Disconnect waits for the connection tasks to exit.
// It should be in range of (0, 30s].
//
// The default value is 3 seconds.
func WithCloseTimeout(d time.Duration) ConnOption {
	return newConnOptFunc("WithCloseTimeout", func(cfg *ConnectionConfig) error {
		if err := checkDuration(d, 30*time.Second); err != nil {
			return err
		}
		cfg.closeTimeout = d

		return nil
	})
}

// WithMaxFrameSize sets the frame length limit. It should be in range of [hsms.HeaderSize, hsms.DefaultMaxFrameSize].
//
// The default value is hsms.DefaultMaxFrameSize.
func WithMaxFrameSize(size uint32) ConnOption {
	return newConnOptFunc("WithMaxFrameSize", func(cfg *ConnectionConfig) error {
		if size < hsms.HeaderSize || size > hsms.DefaultMaxFrameSize {
			return fmt.Errorf("frame size %d is out of range [%d, %d]", size, hsms.HeaderSize, hsms.DefaultMaxFrameSize)
		}
		cfg.maxFrameSize = size

		return nil
	})
}

// WithEventBacklogWarn sets the subscriber backlog size that triggers the first warning.
//
// The default value is 1024.
func WithEventBacklogWarn(n int) ConnOption {
	return newConnOptFunc("WithEventBacklogWarn", func(cfg *ConnectionConfig) error {
		if n <= 0 {
			return fmt.Errorf("backlog threshold %d should be positive", n)
		}
		cfg.eventBacklogWarn = n

		return nil
	})
}

// WithLogger sets the logger of the client.
//
// The default value is logger.GetLogger().
func WithLogger(l logger.Logger) ConnOption {
	return newConnOptFunc("WithLogger", func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("nil logger")
		}
		cfg.logger = l

		return nil
	})
}

// WithDialer replaces the TCP dialer used to open the byte stream.
func WithDialer(d Dialer) ConnOption {
	return newConnOptFunc("WithDialer", func(cfg *ConnectionConfig) error {
		if d == nil {
			return errors.New("nil dialer")
		}
		cfg.dialer = d

		return nil
	})
}

// WithRegistry makes the client add itself to r once connected, and remove itself on disconnect.
func WithRegistry(r *Registry) ConnOption {
	return newConnOptFunc("WithRegistry", func(cfg *ConnectionConfig) error {
		cfg.registry = r
		return nil
	})
}
