package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-hsms/hsms"
	"github.com/arloliu/go-hsms/secs2"
	"github.com/arloliu/go-hsms/sml"
)

type sendFlags struct {
	body    string
	smlBody string
	wait    bool
}

func (f *sendFlags) item() (secs2.Item, error) {
	if f.smlBody != "" {
		item, err := sml.ParseItem(f.smlBody)
		if err != nil {
			return nil, fmt.Errorf("parse body: %w", err)
		}

		return item, nil
	}

	return parseBody(f.body)
}

var streamFunctionRe = regexp.MustCompile(`^[Ss](\d{1,3})[Ff](\d{1,3})$`)

func newSendCmd(root *rootFlags) *cobra.Command {
	flags := &sendFlags{}

	cmd := &cobra.Command{
		Use:   "send SxFy",
		Short: "Send one data message",
		Long: `Send one data message to the equipment, e.g.

  hsmsctl send S1F1 --wait -c etcher.yaml
  hsmsctl send S2F41 --body 0102410553544152540100 --host 10.0.0.5 --port 5000
  hsmsctl send S2F41 --sml '<L <A "START"> <L>>' -w -c etcher.yaml

The body is either the hex encoded SECS-II item or its SML text. With --wait the W-bit is set and the reply is printed
in SML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stream, function, err := parseStreamFunction(args[0])
			if err != nil {
				return err
			}

			body, err := flags.item()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := root.connect(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			msg, err := hsms.NewDataMessage(stream, function, flags.wait, client.Config().SessionID(), 0, body)
			if err != nil {
				return err
			}

			if !flags.wait {
				if err := client.Send(ctx, msg); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg.ToSML())

				return nil
			}

			reply, err := client.SendRequest(ctx, msg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.ToSML())

			return nil
		},
	}

	cmd.Flags().StringVar(&flags.body, "body", "", "hex encoded SECS-II body")
	cmd.Flags().StringVar(&flags.smlBody, "sml", "", "SML text of the SECS-II body")
	cmd.MarkFlagsMutuallyExclusive("body", "sml")
	cmd.Flags().BoolVarP(&flags.wait, "wait", "w", false, "set the W-bit and wait for the reply")

	return cmd
}

func parseStreamFunction(s string) (byte, byte, error) {
	matches := streamFunctionRe.FindStringSubmatch(s)
	if matches == nil {
		return 0, 0, fmt.Errorf("invalid message %q, expected SxFy", s)
	}

	stream, err := strconv.ParseUint(matches[1], 10, 8)
	if err != nil || stream > hsms.MaxStreamCode {
		return 0, 0, fmt.Errorf("%w: %s", hsms.ErrInvalidStreamCode, matches[1])
	}

	function, err := strconv.ParseUint(matches[2], 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid function code %s", matches[2])
	}

	return byte(stream), byte(function), nil
}

// parseBody decodes a hex encoded item, an empty string is no body.
func parseBody(s string) (secs2.Item, error) {
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, nil //nolint:nilnil
	}

	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	item, err := secs2.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	return item, nil
}
