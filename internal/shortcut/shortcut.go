// Package shortcut binds global keyboard shortcuts. Accelerators use the
// Tauri/Electron syntax ("CmdOrCtrl+Shift+M"); registration goes through a
// Registrar so that the daemon can run with a real hotkey backend or with
// none at all.
package shortcut

import "log/slog"

// DefaultAccelerator reveals the main window.
const DefaultAccelerator = "CmdOrCtrl+Shift+M"

// Registrar binds an accelerator to a callback. The callback runs on a
// goroutine owned by the registrar. The returned function removes the binding.
type Registrar interface {
	Register(a Accelerator, fn func()) (func(), error)
}

// RegistrarFunc adapts a function to the Registrar interface.
type RegistrarFunc func(a Accelerator, fn func()) (func(), error)

func (f RegistrarFunc) Register(a Accelerator, fn func()) (func(), error) { return f(a, fn) }

// Unsupported is a Registrar that always fails with ErrUnsupported.
var Unsupported Registrar = RegistrarFunc(func(Accelerator, func()) (func(), error) {
	return nil, ErrUnsupported
})

// Bind parses accel and registers fn with reg. Any failure is logged and
// otherwise ignored: the application keeps running without the shortcut.
// The returned function is never nil.
func Bind(reg Registrar, accel string, fn func()) func() {
	a, err := Parse(accel)
	if err != nil {
		slog.Warn("shortcut not bound", "accelerator", accel, "err", err)
		return func() {}
	}
	unregister, err := reg.Register(a, fn)
	if err != nil {
		slog.Warn("shortcut not bound", "accelerator", a.String(), "err", err)
		return func() {}
	}
	if unregister == nil {
		unregister = func() {}
	}
	slog.Info("shortcut bound", "accelerator", a.String())
	return unregister
}
