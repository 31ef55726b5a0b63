// Package watcher implements the clipboard change watcher: a background loop
// that samples clipboard text and publishes clipboard://text-changed once per
// distinct non-empty value.
//
// The last observed text lives in a local variable of the loop goroutine. It
// is never shared, so no locking is involved. Every failure on the read or
// publish path is swallowed; the loop keeps running and the failure is only
// visible through Stats and debug logs.
package watcher

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultPollInterval is used when Start is given a non-positive interval.
const DefaultPollInterval = 500 * time.Millisecond

// TopicTextChanged is the event name published for every distinct new value.
const TopicTextChanged = "clipboard://text-changed"

// Accessor reads the current clipboard text. It returns an error both when
// the read fails and when the clipboard holds no text; the watcher treats the
// two identically.
type Accessor interface {
	ReadText() (string, error)
}

// Sink publishes a named event with a text payload to interested listeners.
type Sink interface {
	Publish(topic, payload string) error
}

// Stats is a snapshot of the watcher counters.
type Stats struct {
	Ticks      uint64 `json:"ticks"`
	Reads      uint64 `json:"reads"`
	ReadErrors uint64 `json:"read_errors"`
	Empty      uint64 `json:"empty"`
	Duplicates uint64 `json:"duplicates"`
	Emitted    uint64 `json:"emitted"`
	EmitErrors uint64 `json:"emit_errors"`
}

// Watcher is a handle on a running loop. There is no Stop: cancel the
// context passed to Start.
type Watcher struct {
	clipboard Accessor
	sink      Sink
	done      chan struct{}

	ticks      atomic.Uint64
	reads      atomic.Uint64
	readErrors atomic.Uint64
	empty      atomic.Uint64
	duplicates atomic.Uint64
	emitted    atomic.Uint64
	emitErrors atomic.Uint64
}

// Start launches the polling loop in its own goroutine and returns
// immediately. The loop sleeps pollInterval before every read and runs until
// ctx is cancelled.
func Start(ctx context.Context, clipboard Accessor, sink Sink, pollInterval time.Duration) *Watcher {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	w := newWatcher(clipboard, sink)
	go func() {
		t := time.NewTicker(pollInterval)
		defer t.Stop()
		w.loop(ctx, tickerSignal(ctx, t.C))
	}()
	return w
}

// StartWithTrigger is the event-driven variant of Start: every receive on
// trigger is one tick. The loop ends when ctx is cancelled or trigger is
// closed.
func StartWithTrigger(ctx context.Context, clipboard Accessor, sink Sink, trigger <-chan struct{}) *Watcher {
	w := newWatcher(clipboard, sink)
	go w.loop(ctx, trigger)
	return w
}

func newWatcher(clipboard Accessor, sink Sink) *Watcher {
	return &Watcher{
		clipboard: clipboard,
		sink:      sink,
		done:      make(chan struct{}),
	}
}

// Done is closed once the loop has returned.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// Stats returns the current counter values.
func (w *Watcher) Stats() Stats {
	return Stats{
		Ticks:      w.ticks.Load(),
		Reads:      w.reads.Load(),
		ReadErrors: w.readErrors.Load(),
		Empty:      w.empty.Load(),
		Duplicates: w.duplicates.Load(),
		Emitted:    w.emitted.Load(),
		EmitErrors: w.emitErrors.Load(),
	}
}

func (w *Watcher) loop(ctx context.Context, ticks <-chan struct{}) {
	defer close(w.done)

	last := ""
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
		}
		last = w.tick(last)
	}
}

// tick performs one read and at most one publish, returning the new
// last-seen value.
func (w *Watcher) tick(last string) string {
	w.ticks.Add(1)

	current, err := w.clipboard.ReadText()
	if err != nil {
		w.readErrors.Add(1)
		slog.Debug("clipboard read skipped", "err", err)
		return last
	}
	w.reads.Add(1)

	switch {
	case current == "":
		w.empty.Add(1)
		return last
	case current == last:
		w.duplicates.Add(1)
		return last
	}

	if err := w.sink.Publish(TopicTextChanged, current); err != nil {
		w.emitErrors.Add(1)
		slog.Debug("clipboard change not delivered", "err", err)
	} else {
		w.emitted.Add(1)
	}
	return current
}

// tickerSignal adapts a time.Ticker channel to the trigger shape used by
// loop.
func tickerSignal(ctx context.Context, c <-chan time.Time) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-c:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
