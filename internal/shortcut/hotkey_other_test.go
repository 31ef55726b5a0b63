//go:build linux && !x11hotkey

package shortcut

import (
	"errors"
	"testing"
)

func TestNewHotkeyWithoutX11IsUnsupported(t *testing.T) {
	a, err := Parse(DefaultAccelerator)
	if err != nil {
		t.Fatal(err)
	}
	unregister, err := NewHotkey().Register(a, func() {})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Register err = %v, want ErrUnsupported", err)
	}
	if unregister != nil {
		t.Fatal("unregister returned alongside an error")
	}

	// The daemon path: Bind swallows the failure and hands back a no-op.
	Bind(NewHotkey(), DefaultAccelerator, func() { t.Fatal("callback fired") })()
}
