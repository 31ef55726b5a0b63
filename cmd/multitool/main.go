// multitool: clipboard watcher and shortcut daemon for the multitool desktop shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.design/x/hotkey/mainthread"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	code := 0
	// Global hotkeys on macOS need the main thread; elsewhere Init just runs fn.
	mainthread.Init(func() {
		if err := newRootCmd().Execute(); err != nil {
			code = 1
		}
	})
	os.Exit(code)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "multitool",
		Short: "Clipboard watcher and global shortcut daemon",
		Long: `multitool is the background half of the multitool desktop shell. It watches
the system clipboard, broadcasts clipboard://text-changed whenever the text
changes, and binds a global shortcut that asks the UI to show its window.

Run "multitool run" once per desktop session. UI processes and the
watch/latest/status/show tools reach the daemon over a local socket, or over
TLS when the daemon is started with --addr. The fmt, jwt, encode, decode,
hash and text tools work on stdin or on the latest clipboard text.

Config file search order (first found wins):
  /etc/multitool/multitool.toml
  $HOME/.config/multitool/multitool.toml
  path supplied via --config

All flags can be set via MULTITOOL_<FLAG> env vars or config-file keys.
See "multitool run --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newWatchCmd(),
		newLatestCmd(),
		newStatusCmd(),
		newShowCmd(),
		newCopyCmd(),
		newFmtCmd(),
		newJWTCmd(),
		newCodecCmd(false),
		newCodecCmd(true),
		newHashCmd(),
		newTextCmd(),
		newUUIDCmd(),
		newPasswordCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "multitool %s\n", Version)
		},
	}
}
