//go:build darwin || windows || (linux && x11hotkey)

package shortcut

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

var keyCodes = map[string]hotkey.Key{
	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD,
	"E": hotkey.KeyE, "F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH,
	"I": hotkey.KeyI, "J": hotkey.KeyJ, "K": hotkey.KeyK, "L": hotkey.KeyL,
	"M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO, "P": hotkey.KeyP,
	"Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX,
	"Y": hotkey.KeyY, "Z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"Space": hotkey.KeySpace,
	"F1": hotkey.KeyF1, "F2": hotkey.KeyF2, "F3": hotkey.KeyF3, "F4": hotkey.KeyF4,
	"F5": hotkey.KeyF5, "F6": hotkey.KeyF6, "F7": hotkey.KeyF7, "F8": hotkey.KeyF8,
	"F9": hotkey.KeyF9, "F10": hotkey.KeyF10, "F11": hotkey.KeyF11, "F12": hotkey.KeyF12,
}

// Hotkey registers system-wide shortcuts through golang.design/x/hotkey.
// On macOS the process must run inside mainthread.Init.
type Hotkey struct{}

// NewHotkey returns the platform hotkey registrar.
func NewHotkey() Registrar { return Hotkey{} }

// Register implements Registrar.
func (Hotkey) Register(a Accelerator, fn func()) (func(), error) {
	key, ok := keyCodes[a.Key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownToken, a.Key)
	}
	hk := hotkey.New(platformMods(a.Mods), key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("register %s: %w", a, err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-hk.Keydown():
				if !ok {
					return
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = hk.Unregister()
		})
	}, nil
}

// platformMods translates the neutral modifier set, dropping duplicates
// (CmdOrCtrl+Ctrl is a single Ctrl outside macOS).
func platformMods(m Modifier) []hotkey.Modifier {
	var out []hotkey.Modifier
	seen := make(map[hotkey.Modifier]bool)
	for _, mo := range modOrder {
		if m&mo.mod == 0 {
			continue
		}
		pm := modMap[mo.mod]
		if !seen[pm] {
			seen[pm] = true
			out = append(out, pm)
		}
	}
	return out
}
