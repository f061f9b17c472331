package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-hsms/hsmsclient"
	"github.com/arloliu/go-hsms/internal/config"
	"github.com/arloliu/go-hsms/logger"
)

type rootFlags struct {
	config    string
	host      string
	port      int
	sessionID uint16
	logLevel  string
}

func (f *rootFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.config, "config", "c", "", "connection profile, .yaml/.yml or .toml")
	pf.StringVar(&f.host, "host", "", "equipment host, overrides the profile")
	pf.IntVarP(&f.port, "port", "p", 0, "equipment port, overrides the profile")
	pf.Uint16Var(&f.sessionID, "session-id", 0, "session (device) id, overrides the profile")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// profile merges the profile file, if any, with the command line flags.
func (f *rootFlags) profile(cmd *cobra.Command) (*config.Profile, error) {
	profile := &config.Profile{}
	if f.config != "" {
		loaded, err := config.Load(f.config)
		if err != nil {
			return nil, err
		}
		profile = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		profile.Host = f.host
	}
	if flags.Changed("port") {
		profile.Port = f.port
	}
	if flags.Changed("session-id") {
		profile.SessionID = f.sessionID
	}
	if flags.Changed("log-level") {
		profile.LogLevel = f.logLevel
	}

	if profile.Host == "" || profile.Port == 0 {
		return nil, fmt.Errorf("equipment address is required, use --config or --host and --port")
	}

	return profile, nil
}

// connect builds a client from the profile, connects it and waits for the session to be selected.
func (f *rootFlags) connect(ctx context.Context, cmd *cobra.Command, extra ...hsmsclient.ConnOption) (*hsmsclient.Client, error) {
	profile, err := f.profile(cmd)
	if err != nil {
		return nil, err
	}

	level, err := profile.Level()
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	cfg, err := profile.ConnectionConfig(extra...)
	if err != nil {
		return nil, err
	}

	client, err := hsmsclient.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	selectCtx, cancel := context.WithTimeout(ctx, cfg.T6Timeout()+time.Second)
	defer cancel()

	if err := client.WaitState(selectCtx, hsmsclient.StateSelected); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("wait for select: %w", err)
	}

	logger.Info("session selected", "remote", cfg.Address(), "profile", profile.Name)

	return client, nil
}
