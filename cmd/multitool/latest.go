package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newLatestCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "latest [topic]",
		Short: "Print the most recent payload of a topic",
		Long: `Prints the payload most recently published on a topic
(clipboard://text-changed by default) without a trailing newline, like pbpaste.

If nothing has been published yet, nothing is printed and the exit code is 0.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, args []string) error { return runLatest(cmd, v, args) },
	}
	addClientFlags(cmd)
	return cmd
}

func runLatest(cmd *cobra.Command, v *viper.Viper, args []string) error {
	topic := ""
	if len(args) == 1 {
		topic = args[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), v.GetDuration("timeout"))
	defer cancel()

	client, _, closeConn, err := connect(ctx, cmd, v)
	if err != nil {
		return err
	}
	defer closeConn()

	payload, err := client.Latest(ctx, topic)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("latest: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), payload)
	return err
}
