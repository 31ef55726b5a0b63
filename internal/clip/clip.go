// Package clip provides text access to the system clipboard. Several backends
// are available; New selects one by Kind:
//
//	native:   golang.design/x/clipboard (cgo on macOS/Linux, Win32 on Windows)
//	atotto:   github.com/atotto/clipboard (pbpaste / xclip / wl-paste / Win32)
//	headless: no display; every read fails with ErrUnavailable
//	memory:   in-process clipboard, for tests and demos
//	auto:     native, then atotto, then headless
package clip

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrNoText means the clipboard is readable but holds no text.
	ErrNoText = errors.New("clipboard holds no text")
	// ErrUnavailable means no clipboard could be reached at all.
	ErrUnavailable = errors.New("clipboard unavailable")
)

// Backend is the interface that every clipboard implementation satisfies.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ReadText returns the current clipboard text. It returns ErrNoText when
	// the clipboard holds something other than text, or nothing at all.
	ReadText() (string, error)

	// WriteText replaces the clipboard contents with text.
	WriteText(text string) error

	// Watch returns a channel that receives a hint whenever the clipboard may
	// have changed. The caller should call ReadText when it receives. A hint
	// is pending from construction, so text that was already on the clipboard
	// gets read too. The channel is closed by Close (or never, for backends
	// that cannot change).
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// Kind selects a backend implementation.
type Kind string

const (
	KindAuto     Kind = "auto"
	KindNative   Kind = "native"
	KindAtotto   Kind = "atotto"
	KindHeadless Kind = "headless"
	KindMemory   Kind = "memory"
)

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindNative, KindAtotto, KindHeadless, KindMemory:
		return k, nil
	default:
		return "", fmt.Errorf("unknown clipboard backend %q (want auto|native|atotto|headless|memory)", s)
	}
}

// New returns the backend for kind. Explicit kinds fail if the backend cannot
// be initialised; KindAuto degrades to the headless backend instead, so the
// daemon can still run on a machine without a display.
func New(kind Kind) (Backend, error) {
	switch kind {
	case KindNative:
		return newNative()
	case KindAtotto:
		return newAtotto()
	case KindHeadless:
		return NewHeadless(), nil
	case KindMemory:
		return NewMemory(), nil
	case KindAuto, "":
		b, err := newNative()
		if err == nil {
			return b, nil
		}
		slog.Debug("native clipboard unavailable", "err", err)
		if b, err = newAtotto(); err == nil {
			return b, nil
		}
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewHeadless(), nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", kind)
	}
}

// notify performs a non-blocking send of a change hint.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
