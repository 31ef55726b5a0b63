package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"text":  FormatText,
		"TINT":  FormatText,
		"human": FormatText,
		"json":  FormatJSON,
		"auto":  FormatAuto,
		"":      FormatAuto,
		"yaml":  FormatAuto,
	}
	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		def  slog.Level
		want slog.Level
	}{
		{"debug", slog.LevelInfo, slog.LevelDebug},
		{"WARN", slog.LevelInfo, slog.LevelWarn},
		{"error", slog.LevelInfo, slog.LevelError},
		{"", slog.LevelDebug, slog.LevelDebug},
		{"loud", slog.LevelInfo, slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, tt.def); got != tt.want {
			t.Errorf("ParseLevel(%q, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, FormatAuto, slog.LevelInfo)

	log.Debug("hidden")
	log.Info("clipboard changed", "size_bytes", 5)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("non-JSON output for non-terminal writer: %v", err)
	}
	if rec["msg"] != "clipboard changed" || rec["size_bytes"] != float64(5) {
		t.Fatalf("record = %v", rec)
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, FormatText, slog.LevelDebug).Debug("shortcut bound", "accelerator", "CmdOrCtrl+Shift+M")

	out := buf.String()
	if !strings.Contains(out, "shortcut bound") || !strings.Contains(out, "CmdOrCtrl+Shift+M") {
		t.Fatalf("text output = %q", out)
	}
	if json.Valid([]byte(strings.TrimSpace(out))) {
		t.Fatalf("text format produced JSON: %q", out)
	}
}

func TestIsTTY(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Fatal("buffer reported as terminal")
	}
}
