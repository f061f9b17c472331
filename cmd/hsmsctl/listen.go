package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-hsms/hsms"
	"github.com/arloliu/go-hsms/hsmsclient"
	"github.com/arloliu/go-hsms/logger"
)

type listenFlags struct {
	duration    time.Duration
	ack         bool
	metricsAddr string
}

func newListenCmd(root *rootFlags) *cobra.Command {
	flags := &listenFlags{}

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print the messages sent by the equipment",
		Long: `Connect to the equipment and print every unsolicited message in SML until interrupted
or until --duration elapses. With --ack, primary messages with the W-bit set are answered with
an empty secondary message. With --metrics-addr, the connection metrics are served in the
prometheus text format on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if flags.duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, flags.duration)
				defer cancel()
			}

			var opts []hsmsclient.ConnOption
			if flags.metricsAddr != "" {
				registry := hsmsclient.NewRegistry()
				srv, err := startMetricsServer(flags.metricsAddr, registry)
				if err != nil {
					return fmt.Errorf("metrics server: %w", err)
				}
				defer func() { _ = srv.Close(context.Background()) }()

				opts = append(opts, hsmsclient.WithRegistry(registry))
			}

			client, err := root.connect(ctx, cmd, opts...)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			ctx, cancel := context.WithCancelCause(ctx)
			defer cancel(nil)
			client.AddStateChangeHandler(func(_ *hsmsclient.Client, _ hsmsclient.ConnState, state hsmsclient.ConnState) {
				if state.IsDisconnected() {
					cancel(hsms.ErrConnClosed)
				}
			})

			out := cmd.OutOrStdout()
			for msg := range client.Subscribe(ctx) {
				fmt.Fprintf(out, "%s %s\n", time.Now().Format(time.RFC3339Nano), msg.ToSML())

				if !flags.ack || !msg.IsPrimary() || !msg.WaitBit() {
					continue
				}

				rsp, err := hsms.NewDataResponse(msg, nil)
				if err != nil {
					logger.Warn("failed to build reply", hsms.MsgInfo(msg, "error", err)...)
					continue
				}
				if err := client.Send(ctx, rsp); err != nil {
					logger.Warn("failed to send reply", hsms.MsgInfo(rsp, "error", err)...)
				}
			}

			if err := context.Cause(ctx); errors.Is(err, hsms.ErrConnClosed) {
				return err
			}

			return nil
		},
	}

	cmd.Flags().DurationVarP(&flags.duration, "duration", "d", 0, "stop after this duration, 0 runs until interrupted")
	cmd.Flags().BoolVar(&flags.ack, "ack", false, "answer primary messages with an empty reply")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9100")

	return cmd
}
