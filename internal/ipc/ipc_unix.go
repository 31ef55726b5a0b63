//go:build unix

package ipc

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

func socketPath() string {
	if runtime.GOOS == "linux" {
		if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
			return filepath.Join(dir, "multitool.sock")
		}
	}
	return filepath.Join(os.TempDir(), "multitool.sock")
}

// removeStale deletes path only if it is a socket, so a mistyped
// $MULTITOOL_SOCKET can never remove a regular file.
func removeStale(path string) {
	if fi, err := os.Lstat(path); err == nil && fi.Mode()&os.ModeSocket != 0 {
		_ = os.Remove(path)
	}
}

// umaskMu serialises the process-wide umask change around bind.
var umaskMu sync.Mutex

// listenIPC binds under a 0177 umask so the socket is owner-only from the
// moment it exists.
func listenIPC(path string) (net.Listener, error) {
	umaskMu.Lock()
	old := unix.Umask(0o177)
	ln, err := net.Listen("unix", path)
	unix.Umask(old)
	umaskMu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("restrict %s: %w", path, err)
	}
	return ln, nil
}

func dialIPC(path string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", path, timeout)
}
