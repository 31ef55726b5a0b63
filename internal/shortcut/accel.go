package shortcut

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Modifier is a bit set of platform-neutral modifier keys.
type Modifier uint8

const (
	// ModCmdOrCtrl is Cmd on macOS and Ctrl everywhere else.
	ModCmdOrCtrl Modifier = 1 << iota
	// ModSuper is Cmd on macOS, the Windows key on Windows, Super (Mod4) on Linux.
	ModSuper
	ModCtrl
	ModAlt
	ModShift
)

var modOrder = []struct {
	mod  Modifier
	name string
}{
	{ModCmdOrCtrl, "CmdOrCtrl"},
	{ModSuper, "Super"},
	{ModCtrl, "Ctrl"},
	{ModAlt, "Alt"},
	{ModShift, "Shift"},
}

var modNames = map[string]Modifier{
	"cmdorctrl":        ModCmdOrCtrl,
	"commandorcontrol": ModCmdOrCtrl,
	"cmd":              ModSuper,
	"command":          ModSuper,
	"super":            ModSuper,
	"meta":             ModSuper,
	"ctrl":             ModCtrl,
	"control":          ModCtrl,
	"alt":              ModAlt,
	"option":           ModAlt,
	"shift":            ModShift,
}

var (
	ErrEmpty        = errors.New("shortcut: empty accelerator")
	ErrNoKey        = errors.New("shortcut: accelerator has no key")
	ErrNoModifier   = errors.New("shortcut: accelerator needs at least one modifier")
	ErrMultipleKeys = errors.New("shortcut: accelerator has more than one key")
	ErrUnknownToken = errors.New("shortcut: unknown token")
	ErrUnsupported  = errors.New("shortcut: global hotkeys unsupported on this platform")
)

// Accelerator is a parsed key combination such as CmdOrCtrl+Shift+M.
type Accelerator struct {
	Mods Modifier
	// Key is the canonical key name: A–Z, 0–9, Space or F1–F12.
	Key string
}

// Has reports whether m is part of the combination.
func (a Accelerator) Has(m Modifier) bool { return a.Mods&m != 0 }

// String renders the canonical form, modifiers first in a fixed order.
func (a Accelerator) String() string {
	parts := make([]string, 0, len(modOrder)+1)
	for _, m := range modOrder {
		if a.Has(m.mod) {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, a.Key), "+")
}

// Parse reads an accelerator in Tauri/Electron syntax. Tokens are separated
// by '+' and are case-insensitive. A global shortcut without a modifier would
// swallow an ordinary key press, so at least one modifier is required.
func Parse(s string) (Accelerator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Accelerator{}, ErrEmpty
	}
	var a Accelerator
	for _, raw := range strings.Split(s, "+") {
		tok := strings.TrimSpace(raw)
		if m, ok := modNames[strings.ToLower(tok)]; ok {
			a.Mods |= m
			continue
		}
		key, ok := canonicalKey(tok)
		if !ok {
			return Accelerator{}, fmt.Errorf("%w %q in %q", ErrUnknownToken, tok, s)
		}
		if a.Key != "" {
			return Accelerator{}, fmt.Errorf("%w: %q", ErrMultipleKeys, s)
		}
		a.Key = key
	}
	if a.Key == "" {
		return Accelerator{}, fmt.Errorf("%w: %q", ErrNoKey, s)
	}
	if a.Mods == 0 {
		return Accelerator{}, fmt.Errorf("%w: %q", ErrNoModifier, s)
	}
	return a, nil
}

// canonicalKey maps a key token to its canonical name.
func canonicalKey(tok string) (string, bool) {
	up := strings.ToUpper(tok)
	switch {
	case len(up) == 1 && (up[0] >= 'A' && up[0] <= 'Z' || up[0] >= '0' && up[0] <= '9'):
		return up, true
	case up == "SPACE":
		return "Space", true
	case len(up) >= 2 && up[0] == 'F':
		n, err := strconv.Atoi(up[1:])
		if err == nil && n >= 1 && n <= 12 && strconv.Itoa(n) == up[1:] {
			return up, true
		}
	}
	return "", false
}
