// Package logging configures the global slog logger for the multitool binary.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Format selects the log output format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

const timeFormat = "15:04:05.000"

// ParseFormat converts a string to a Format, returning FormatAuto for unknown values.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "tint", "human":
		return FormatText
	case "json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// ParseLevel converts a string to a slog.Level. An empty or unknown string
// yields def.
func ParseLevel(s string, def slog.Level) slog.Level {
	if s == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return def
	}
	return l
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// New returns a logger writing to w. FormatAuto picks the colour handler
// when w is a terminal and JSON otherwise.
func New(w io.Writer, format Format, level slog.Level) *slog.Logger {
	useTint := format == FormatText || (format == FormatAuto && IsTTY(w))

	var h slog.Handler
	if useTint {
		h = tinter.NewHandler(w, &tinter.Options{
			Level:      level,
			TimeFormat: timeFormat,
		})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(h)
}

// Setup configures the global slog logger on stderr. Call once after
// flag/viper parsing.
func Setup(format Format, level slog.Level) {
	slog.SetDefault(New(os.Stderr, format, level))
}
