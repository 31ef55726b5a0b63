//go:build !windows

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/multitool/internal/clip"
	"go.klb.dev/multitool/internal/ipc"
	"go.klb.dev/multitool/internal/shortcut"
	"go.klb.dev/multitool/internal/watcher"
)

func daemonConfig() *viper.Viper {
	v := viper.New()
	v.Set("clipboard", "memory")
	v.Set("trigger", triggerPoll)
	v.Set("poll-interval", 10*time.Millisecond)
	v.Set("no-shortcut", true)
	v.Set("log-level", "error")
	return v
}

func TestRunDaemonOverIPC(t *testing.T) {
	t.Setenv(ipc.EnvSocket, filepath.Join(t.TempDir(), "mt.sock"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runDaemon(ctx, daemonConfig()) }()

	deadline := time.Now().Add(5 * time.Second)
	for !ipc.IsRunning() {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("daemon never opened the IPC socket")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// A second daemon refuses to start while the first is listening.
	if err := runDaemon(context.Background(), daemonConfig()); err == nil || !strings.Contains(err.Error(), "already listening") {
		t.Fatalf("second daemon: %v", err)
	}

	cmd := newStatusCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json"})
	t.Setenv("HOME", t.TempDir())
	if err := cmd.Execute(); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), `"backend": "memory"`) {
		t.Fatalf("status output:\n%s", out.String())
	}

	show := newShowCmd()
	show.SetArgs([]string{})
	if err := show.Execute(); err != nil {
		t.Fatalf("show: %v", err)
	}

	latest := newLatestCmd()
	out.Reset()
	latest.SetOut(&out)
	latest.SetArgs([]string{})
	if err := latest.Execute(); err != nil {
		t.Fatalf("latest: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("latest printed %q for an empty clipboard", out.String())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("daemon exited with %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	if ipc.IsRunning() {
		t.Fatal("IPC socket still answering after shutdown")
	}
}

func TestRunDaemonRejectsBadTrigger(t *testing.T) {
	v := daemonConfig()
	v.Set("trigger", "sometimes")
	if err := runDaemon(context.Background(), v); err == nil {
		t.Fatal("expected error for unknown trigger")
	}
}

// lockedBuffer is a bytes.Buffer safe for a writer goroutine and a polling
// reader.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// startDaemon runs a daemon on a private socket with mem as its clipboard
// and stops it when the test ends.
func startDaemon(t *testing.T, v *viper.Viper, mem *clip.Memory) {
	t.Helper()
	t.Setenv(ipc.EnvSocket, filepath.Join(t.TempDir(), "mt.sock"))
	t.Setenv("HOME", t.TempDir())

	prev := openBackend
	openBackend = func(clip.Kind) (clip.Backend, error) { return mem, nil }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runDaemon(ctx, v) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("daemon exited with %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("daemon did not stop")
		}
		openBackend = prev
	})

	waitUntil(t, "daemon never opened the IPC socket", ipc.IsRunning)
}

func waitUntil(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func runCmd(t *testing.T, newCmd func() *cobra.Command, args ...string) string {
	t.Helper()
	if args == nil {
		args = []string{}
	}
	cmd := newCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("%s %v: %v", cmd.Name(), args, err)
	}
	return out.String()
}

func daemonStats(t *testing.T) watcher.Stats {
	t.Helper()
	var r struct {
		Watcher watcher.Stats `json:"watcher"`
	}
	if err := json.Unmarshal([]byte(runCmd(t, newStatusCmd, "--json")), &r); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return r.Watcher
}

func TestDaemonPublishesClipboardChanges(t *testing.T) {
	for _, trigger := range []string{triggerPoll, triggerWatch} {
		t.Run(trigger, func(t *testing.T) {
			v := daemonConfig()
			v.Set("trigger", trigger)
			if trigger == triggerWatch && runtime.GOOS == "linux" {
				// No hotkey backend in a default Linux build: the daemon
				// logs and carries on.
				v.Set("no-shortcut", false)
				v.Set("shortcut", shortcut.DefaultAccelerator)
			}

			// Text already on the clipboard when the daemon starts is
			// published without waiting for another copy.
			mem := clip.NewMemory()
			_ = mem.WriteText("first")
			startDaemon(t, v, mem)

			waitUntil(t, "latest never returned the text present at start", func() bool {
				return runCmd(t, newLatestCmd) == "first"
			})

			var out lockedBuffer
			watched := make(chan error, 1)
			go func() {
				cmd := newWatchCmd()
				cmd.SetOut(&out)
				cmd.SetArgs([]string{"--count", "2"})
				watched <- cmd.Execute()
			}()
			waitUntil(t, "watch never replayed the latest text", func() bool {
				return out.String() == "first\n"
			})

			// Copying the same text again is not a change.
			_ = mem.WriteText("first")
			time.Sleep(50 * time.Millisecond)
			_ = mem.WriteText("second")

			select {
			case err := <-watched:
				if err != nil {
					t.Fatalf("watch: %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("watch still running, got %q", out.String())
			}
			if got := out.String(); got != "first\nsecond\n" {
				t.Fatalf("watch printed %q", got)
			}

			waitUntil(t, "watcher never counted two emits", func() bool {
				return daemonStats(t).Emitted == 2
			})
			if s := daemonStats(t); s.Duplicates == 0 || s.Emitted != 2 {
				t.Fatalf("stats = %+v", s)
			}

			if got := runCmd(t, newTextCmd, "upper", "--input", "daemon"); got != "SECOND\n" {
				t.Fatalf("text upper --input daemon = %q", got)
			}
		})
	}
}
