package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestBindViperPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "multitool.toml")
	if err := os.WriteFile(cfg, []byte(`
poll-interval = "2s"
shortcut = "Alt+Space"
trigger = "watch"
`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MULTITOOL_SHORTCUT", "Ctrl+Shift+K")

	v := viper.New()
	cmd := newRunCmd()
	if err := cmd.Flags().Parse([]string{"--config", cfg, "--trigger", "poll"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := bindViper(cmd, v); err != nil {
		t.Fatalf("bindViper: %v", err)
	}

	if got := v.GetDuration("poll-interval"); got != 2*time.Second {
		t.Errorf("poll-interval = %v, want 2s from config", got)
	}
	if got := v.GetString("shortcut"); got != "Ctrl+Shift+K" {
		t.Errorf("shortcut = %q, want env value", got)
	}
	if got := v.GetString("trigger"); got != "poll" {
		t.Errorf("trigger = %q, want flag value", got)
	}
	if got := v.GetString("clipboard"); got != "auto" {
		t.Errorf("clipboard = %q, want default", got)
	}
}

func TestBindViperEnvWithDash(t *testing.T) {
	t.Setenv("MULTITOOL_NO_SHORTCUT", "true")
	cmd := newRunCmd()
	if err := cmd.Flags().Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}); err != nil {
		t.Fatal(err)
	}
	v := viper.New()
	// An explicit --config that does not exist is an error.
	if err := bindViper(cmd, v); err == nil {
		t.Fatal("expected error for missing explicit config")
	}

	cmd = newRunCmd()
	v = viper.New()
	t.Setenv("HOME", t.TempDir())
	if err := bindViper(cmd, v); err != nil {
		t.Fatalf("bindViper: %v", err)
	}
	if !v.GetBool("no-shortcut") {
		t.Fatal("MULTITOOL_NO_SHORTCUT not applied")
	}
}
