// Package config loads the connection profiles of the hsmsctl command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/go-hsms/hsmsclient"
	"github.com/arloliu/go-hsms/logger"
)

// ErrUnsupportedFormat is returned for a profile file whose extension is neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("config: unsupported profile format")

// Profile describes the equipment to connect to. Durations are strings accepted by
// time.ParseDuration, empty values keep the client defaults.
type Profile struct {
	Name             string `yaml:"name" toml:"name"`
	Host             string `yaml:"host" toml:"host"`
	Port             int    `yaml:"port" toml:"port"`
	SessionID        uint16 `yaml:"session_id" toml:"session_id"`
	ConnectTimeout   string `yaml:"connect_timeout" toml:"connect_timeout"`
	T3Timeout        string `yaml:"t3_timeout" toml:"t3_timeout"`
	T6Timeout        string `yaml:"t6_timeout" toml:"t6_timeout"`
	T8Timeout        string `yaml:"t8_timeout" toml:"t8_timeout"`
	LinktestInterval string `yaml:"linktest_interval" toml:"linktest_interval"`
	CloseTimeout     string `yaml:"close_timeout" toml:"close_timeout"`
	MaxFrameSize     uint32 `yaml:"max_frame_size" toml:"max_frame_size"`
	EventBacklogWarn int    `yaml:"event_backlog_warn" toml:"event_backlog_warn"`
	LogLevel         string `yaml:"log_level" toml:"log_level"`
}

// Load reads the profile at path, decoded as YAML for ".yaml" and ".yml" files and as TOML for
// ".toml" files.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var profile Profile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("parse profile %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &profile); err != nil {
			return nil, fmt.Errorf("parse profile %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if profile.Name == "" {
		profile.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &profile, nil
}

// Level returns the log level of the profile, logger.InfoLevel when not set.
func (p *Profile) Level() (logger.LogLevel, error) {
	if p.LogLevel == "" {
		return logger.InfoLevel, nil
	}

	return logger.ParseLevel(p.LogLevel)
}

// ConnOptions converts the profile into client options.
func (p *Profile) ConnOptions() ([]hsmsclient.ConnOption, error) {
	opts := []hsmsclient.ConnOption{hsmsclient.WithSessionID(p.SessionID)}

	durations := []struct {
		key   string
		value string
		opt   func(time.Duration) hsmsclient.ConnOption
	}{
		{"connect_timeout", p.ConnectTimeout, hsmsclient.WithConnectTimeout},
		{"t3_timeout", p.T3Timeout, hsmsclient.WithT3Timeout},
		{"t6_timeout", p.T6Timeout, hsmsclient.WithT6Timeout},
		{"t8_timeout", p.T8Timeout, hsmsclient.WithT8Timeout},
		{"linktest_interval", p.LinktestInterval, hsmsclient.WithLinktestInterval},
		{"close_timeout", p.CloseTimeout, hsmsclient.WithCloseTimeout},
	}
	for _, d := range durations {
		value := strings.TrimSpace(d.value)
		if value == "" {
			continue
		}

		parsed, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		opts = append(opts, d.opt(parsed))
	}

	if p.MaxFrameSize != 0 {
		opts = append(opts, hsmsclient.WithMaxFrameSize(p.MaxFrameSize))
	}

	if p.EventBacklogWarn != 0 {
		opts = append(opts, hsmsclient.WithEventBacklogWarn(p.EventBacklogWarn))
	}

	return opts, nil
}

// ConnectionConfig builds the client configuration of the profile, extra options are applied last.
func (p *Profile) ConnectionConfig(extra ...hsmsclient.ConnOption) (*hsmsclient.ConnectionConfig, error) {
	opts, err := p.ConnOptions()
	if err != nil {
		return nil, err
	}

	return hsmsclient.NewConnectionConfig(p.Host, p.Port, append(opts, extra...)...)
}
