//go:build windows

package shortcut

import "golang.design/x/hotkey"

var modMap = map[Modifier]hotkey.Modifier{
	ModCmdOrCtrl: hotkey.ModCtrl,
	ModSuper:     hotkey.ModWin,
	ModCtrl:      hotkey.ModCtrl,
	ModAlt:       hotkey.ModAlt,
	ModShift:     hotkey.ModShift,
}
