//go:build darwin || linux || windows

package clip

import (
	"context"
	"fmt"

	"golang.design/x/clipboard"
)

type nativeBackend struct {
	watchCh chan struct{}
	cancel  context.CancelFunc
}

// newNative returns the golang.design/x/clipboard backend. clipboard.Init is
// called here rather than in init() so that CLI sub-commands that never
// construct a Backend don't fail on headless systems.
func newNative() (Backend, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &nativeBackend{
		watchCh: make(chan struct{}, 1),
		cancel:  cancel,
	}
	// clipboard.Watch only reports changes after its first read.
	notify(b.watchCh)
	go b.forward(clipboard.Watch(ctx, clipboard.FmtText))
	return b, nil
}

func (b *nativeBackend) Name() string { return "native (golang.design/x/clipboard)" }

// forward turns the library's text stream into change hints. The library
// closes changes when the context is cancelled.
func (b *nativeBackend) forward(changes <-chan []byte) {
	defer close(b.watchCh)
	for range changes {
		notify(b.watchCh)
	}
}

func (b *nativeBackend) ReadText() (string, error) {
	data := clipboard.Read(clipboard.FmtText)
	if data == nil {
		return "", ErrNoText
	}
	return string(data), nil
}

func (b *nativeBackend) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (b *nativeBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *nativeBackend) Close()                 { b.cancel() }
