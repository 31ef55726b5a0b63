package clip

import (
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

const atottoPollInterval = 250 * time.Millisecond

// atottoBackend shells out to the platform clipboard tools. It has no native
// change notification, so Watch is implemented by polling.
type atottoBackend struct {
	watchCh   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	last      string
}

func newAtotto() (Backend, error) {
	if clipboard.Unsupported {
		return nil, fmt.Errorf("%w: no clipboard utility found", ErrUnavailable)
	}
	b := &atottoBackend{
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	notify(b.watchCh)
	go b.poll()
	return b, nil
}

func (b *atottoBackend) Name() string { return "atotto (system clipboard tools)" }

func (b *atottoBackend) poll() {
	t := time.NewTicker(atottoPollInterval)
	defer t.Stop()
	defer close(b.watchCh)
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			text, err := clipboard.ReadAll()
			if err != nil {
				continue
			}
			if text != b.last {
				b.last = text
				notify(b.watchCh)
			}
		}
	}
}

func (b *atottoBackend) ReadText() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("atotto read: %w", err)
	}
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func (b *atottoBackend) WriteText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("atotto write: %w", err)
	}
	return nil
}

func (b *atottoBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *atottoBackend) Close()                 { b.closeOnce.Do(func() { close(b.done) }) }
