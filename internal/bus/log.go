package bus

import (
	"context"
	"log/slog"
)

const previewLen = 120

// LogEvent logs a published event at INFO (topic, payload size) and a text
// preview of up to 120 bytes at DEBUG.
func LogEvent(msg string, ev Event) {
	slog.Info(msg, "topic", ev.Topic, "size_bytes", len(ev.Payload))

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	slog.Debug("event payload", "topic", ev.Topic, "preview", Preview(ev.Payload, previewLen))
}

// Preview truncates s to at most n bytes on a rune boundary, marking the cut
// with an ellipsis.
func Preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut] + "…"
}
