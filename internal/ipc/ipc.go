// Package ipc provides helpers for the local socket used by the CLI tools
// (watch/latest/status) and by UI processes on the same machine to talk to a
// running multitool daemon.
//
// The IPC channel is plain gRPC over a Unix domain socket (a named pipe on
// Windows), using the same EventService as the TCP listener. It is local and
// owner-restricted by the OS, so no token or TLS is applied.
package ipc

import (
	"context"
	"net"
	"os"
	"time"
)

// EnvSocket overrides the socket path.
const EnvSocket = "MULTITOOL_SOCKET"

// Target is the gRPC dial target used together with DialContext.
const Target = "passthrough:///multitool-ipc"

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux:   $XDG_RUNTIME_DIR/multitool.sock, else $TMPDIR/multitool.sock
//   - macOS:   $TMPDIR/multitool.sock
//   - Windows: \\.\pipe\multitool
//
// $MULTITOOL_SOCKET overrides all of them.
func SocketPath() string {
	if s := os.Getenv(EnvSocket); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a daemon appears to be listening on the IPC
// socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on the IPC socket path, removing any stale
// socket file from a previous (crashed) run first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	removeStale(path)
	return listenIPC(path)
}

// Dial connects to the IPC socket.
func Dial() (net.Conn, error) {
	return dialIPC(SocketPath(), time.Second)
}

// DialContext is a grpc.WithContextDialer dialer; addr is ignored and the
// IPC socket is used instead.
func DialContext(ctx context.Context, _ string) (net.Conn, error) {
	timeout := 5 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	return dialIPC(SocketPath(), timeout)
}
