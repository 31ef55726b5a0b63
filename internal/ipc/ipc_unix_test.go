//go:build unix

package ipc

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestSocketPathOverride(t *testing.T) {
	t.Setenv(EnvSocket, "/tmp/custom.sock")
	if got := SocketPath(); got != "/tmp/custom.sock" {
		t.Fatalf("SocketPath() = %q", got)
	}
	t.Setenv(EnvSocket, "")
	if got := SocketPath(); filepath.Base(got) != "multitool.sock" {
		t.Fatalf("default SocketPath() = %q", got)
	}
}

func TestListenDialAndStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mt.sock")
	t.Setenv(EnvSocket, path)

	if IsRunning() {
		t.Fatal("IsRunning before Listen")
	}

	ln, err := Listen()
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	if !IsRunning() {
		t.Fatal("IsRunning = false while listening")
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := fi.Mode().Perm(); perm != 0o600 {
		t.Fatalf("socket mode = %o, want 600", perm)
	}

	// A second Listen replaces the socket left behind by the first.
	ln2, err := Listen()
	if err != nil {
		t.Fatalf("listen over stale socket: %v", err)
	}
	ln2.Close()
	ln.Close()
}

func TestListenKeepsRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-socket")
	if err := os.WriteFile(path, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvSocket, path)

	if ln, err := Listen(); err == nil {
		ln.Close()
		t.Fatal("Listen succeeded over a regular file")
	}
	if b, err := os.ReadFile(path); err != nil || string(b) != "data" {
		t.Fatalf("regular file was modified: %q, %v", b, err)
	}
}

func TestListenIsOwnerOnlyAndRestoresUmask(t *testing.T) {
	t.Setenv(EnvSocket, filepath.Join(t.TempDir(), "mt.sock"))

	prev := unix.Umask(0)
	defer unix.Umask(prev)

	ln, err := Listen()
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	if cur := unix.Umask(0); cur != 0 {
		t.Fatalf("umask after Listen = %o, want 0 restored", cur)
	}
	fi, err := os.Stat(SocketPath())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := fi.Mode().Perm(); perm&0o077 != 0 {
		t.Fatalf("socket mode = %o, group/other bits set", perm)
	}
}
