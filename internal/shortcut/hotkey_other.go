//go:build !darwin && !windows && !(linux && x11hotkey)

package shortcut

// NewHotkey returns a registrar that always fails with ErrUnsupported.
//
// On Linux the X11 registrar is only compiled with -tags x11hotkey:
// golang.design/x/hotkey opens the display in its package init and panics
// when there is none, which would take down every sub-command on a headless
// host.
func NewHotkey() Registrar { return Unsupported }
