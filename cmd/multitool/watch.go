package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/multitool/internal/bus"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch [topic]",
		Short: "Print events from a running daemon as they happen",
		Long: `Subscribes to a topic on the running daemon and prints one payload per
event. The topic defaults to clipboard://text-changed; the latest value of a
clipboard topic is printed first.

Topics:
  clipboard://text-changed   new clipboard text
  clipboard://notice         JSON notice describing the new text
  window://show              the global shortcut was pressed

Payloads are separated by --delimiter (a newline by default; use --null for
NUL-separated output).`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, args []string) error { return runWatch(cmd, v, args) },
	}

	f := cmd.Flags()
	f.String("delimiter", "\n", "string written after each payload")
	f.Bool("null", false, "separate payloads with NUL bytes")
	f.Int("count", 0, "exit after this many events (0 = run until interrupted)")
	addClientFlags(cmd)

	return cmd
}

func runWatch(cmd *cobra.Command, v *viper.Viper, args []string) error {
	topic := bus.TopicTextChanged
	if len(args) == 1 {
		topic = args[0]
	}
	delim := v.GetString("delimiter")
	if v.GetBool("null") {
		delim = "\x00"
	}
	limit := v.GetInt("count")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, _, closeConn, err := connect(ctx, cmd, v)
	if err != nil {
		return err
	}
	defer closeConn()

	stream, err := client.Watch(ctx, topic)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	out := cmd.OutOrStdout()
	for n := 0; limit <= 0 || n < limit; n++ {
		msg, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
		if _, err := fmt.Fprint(out, msg.GetValue(), delim); err != nil {
			return err
		}
	}
	return nil
}
