//go:build linux && x11hotkey

package shortcut

import "golang.design/x/hotkey"

// X11 maps Alt to Mod1 and Super to Mod4 on virtually every keyboard layout.
var modMap = map[Modifier]hotkey.Modifier{
	ModCmdOrCtrl: hotkey.ModCtrl,
	ModSuper:     hotkey.Mod4,
	ModCtrl:      hotkey.ModCtrl,
	ModAlt:       hotkey.Mod1,
	ModShift:     hotkey.ModShift,
}
