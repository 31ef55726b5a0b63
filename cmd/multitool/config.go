package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/multitool/internal/logging"
)

// envReplacer maps flag names to env var suffixes: poll-interval → POLL_INTERVAL.
var envReplacer = strings.NewReplacer("-", "_")

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and MULTITOOL_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → MULTITOOL_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("multitool")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/multitool/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "multitool"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("MULTITOOL")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	def := slog.LevelInfo
	if interactive {
		def = slog.LevelDebug
	}
	logging.Setup(logging.ParseFormat(v.GetString("log-format")), logging.ParseLevel(v.GetString("log-level"), def))
}
