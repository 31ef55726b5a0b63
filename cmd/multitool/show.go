package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newShowCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Ask the UI to show its main window",
		Long: `Publishes window://show on the running daemon, exactly as the global
shortcut does. Useful where global hotkeys are unavailable (Wayland, remote
sessions): bind "multitool show" in the desktop environment instead.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runShow(cmd, v) },
	}
	addClientFlags(cmd)
	return cmd
}

func runShow(cmd *cobra.Command, v *viper.Viper) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.GetDuration("timeout"))
	defer cancel()

	client, _, closeConn, err := connect(ctx, cmd, v)
	if err != nil {
		return err
	}
	defer closeConn()

	if err := client.Show(ctx); err != nil {
		return fmt.Errorf("show: %w", err)
	}
	return nil
}
