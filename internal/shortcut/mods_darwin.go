//go:build darwin

package shortcut

import "golang.design/x/hotkey"

var modMap = map[Modifier]hotkey.Modifier{
	ModCmdOrCtrl: hotkey.ModCmd,
	ModSuper:     hotkey.ModCmd,
	ModCtrl:      hotkey.ModCtrl,
	ModAlt:       hotkey.ModOption,
	ModShift:     hotkey.ModShift,
}
