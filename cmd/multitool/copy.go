package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/multitool/internal/clip"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy stdin to the system clipboard (like pbcopy)",
		Long: `Reads stdin and writes it to the local system clipboard as text. A running
daemon picks the change up on its next check like any other copy.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runCopy(cmd.InOrStdin(), v) },
	}

	// atotto hands the text to pbcopy/xclip/wl-copy, which keep owning the
	// X11 selection after this process exits.
	cmd.Flags().String("clipboard", string(clip.KindAtotto), "clipboard backend: auto|native|atotto")
	addConfigFlag(cmd)

	return cmd
}

func runCopy(in io.Reader, v *viper.Viper) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	kind, err := clip.ParseKind(v.GetString("clipboard"))
	if err != nil {
		return err
	}
	backend, err := clip.New(kind)
	if err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	defer backend.Close()

	if err := backend.WriteText(string(data)); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	fmt.Fprintf(os.Stderr, "copied %d bytes to the %s clipboard\n", len(data), backend.Name())
	return nil
}
