package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-hsms/logger"
)

const yamlProfile = `
name: etcher
host: 127.0.0.1
port: 5000
session_id: 9527
connect_timeout: 10s
t3_timeout: 45s
linktest_interval: 0s
max_frame_size: 65536
log_level: debug
`

const tomlProfile = `
host = "127.0.0.1"
port = 5000
session_id = 9527
connect_timeout = "10s"
t3_timeout = "45s"
linktest_interval = "0s"
max_frame_size = 65536
log_level = "debug"
`

func writeProfile(t *testing.T, name string, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		description  string
		file         string
		content      string
		expectedName string
	}{
		{description: "yaml", file: "etcher.yaml", content: yamlProfile, expectedName: "etcher"},
		{description: "yml", file: "etcher.yml", content: yamlProfile, expectedName: "etcher"},
		{description: "toml, name from file", file: "stepper.toml", content: tomlProfile, expectedName: "stepper"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			profile, err := Load(writeProfile(t, tt.file, tt.content))
			require.NoError(err)

			require.Equal(tt.expectedName, profile.Name)
			require.Equal("127.0.0.1", profile.Host)
			require.Equal(5000, profile.Port)
			require.Equal(uint16(9527), profile.SessionID)
			require.Equal(uint32(65536), profile.MaxFrameSize)

			level, err := profile.Level()
			require.NoError(err)
			require.Equal(logger.DebugLevel, level)

			cfg, err := profile.ConnectionConfig()
			require.NoError(err)
			require.Equal("127.0.0.1:5000", cfg.Address())
			require.Equal(uint16(9527), cfg.SessionID())
			require.Equal(10*time.Second, cfg.ConnectTimeout())
			require.Equal(45*time.Second, cfg.T3Timeout())
			require.Equal(5*time.Second, cfg.T6Timeout())
			require.Zero(cfg.LinktestInterval())
			require.Equal(uint32(65536), cfg.MaxFrameSize())
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	require := require.New(t)

	_, err := Load(writeProfile(t, "etcher.json", "{}"))
	require.ErrorIs(err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(err)

	_, err = Load(writeProfile(t, "broken.toml", "host = "))
	require.Error(err)

	profile, err := Load(writeProfile(t, "bad.yaml", "host: 127.0.0.1\nport: 5000\nt3_timeout: soon\n"))
	require.NoError(err)
	_, err = profile.ConnOptions()
	require.ErrorContains(err, "t3_timeout")

	profile, err = Load(writeProfile(t, "noport.yaml", "host: 127.0.0.1\n"))
	require.NoError(err)
	_, err = profile.ConnectionConfig()
	require.Error(err)

	level, err := profile.Level()
	require.NoError(err)
	require.Equal(logger.InfoLevel, level)
}
