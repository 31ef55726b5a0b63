package watcher

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"go.klb.dev/multitool/internal/clip"
)

var errRead = errors.New("read failed")

// read is one scripted clipboard sample.
type read struct {
	text string
	err  error
}

func texts(ss ...string) []read {
	out := make([]read, len(ss))
	for i, s := range ss {
		out[i] = read{text: s}
	}
	return out
}

// scriptedClipboard replays reads in order. Once exhausted it calls onDone
// (if set) and keeps failing.
type scriptedClipboard struct {
	mu     sync.Mutex
	reads  []read
	onDone func()
}

func (c *scriptedClipboard) ReadText() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.reads) == 0 {
		if c.onDone != nil {
			c.onDone()
			c.onDone = nil
		}
		return "", errRead
	}
	r := c.reads[0]
	c.reads = c.reads[1:]
	return r.text, r.err
}

type recordingSink struct {
	mu     sync.Mutex
	topics []string
	events []string
	err    error
}

func (s *recordingSink) Publish(topic, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = append(s.topics, topic)
	s.events = append(s.events, payload)
	return s.err
}

func (s *recordingSink) got() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// runTriggered drives a watcher with exactly len(reads) ticks and waits for
// the loop to exit.
func runTriggered(t *testing.T, reads []read, sink *recordingSink) *Watcher {
	t.Helper()
	trigger := make(chan struct{})
	w := StartWithTrigger(context.Background(), &scriptedClipboard{reads: reads}, sink, trigger)
	for range reads {
		trigger <- struct{}{}
	}
	close(trigger)
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after trigger was closed")
	}
	return w
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name  string
		reads []read
		want  []string
	}{
		{"basic change", texts("", "hello", "hello", "world"), []string{"hello", "world"}},
		{"all empty", texts("", "", ""), nil},
		{"interleaved failure", []read{{text: "a"}, {err: errRead}, {text: "a"}, {text: "b"}}, []string{"a", "b"}},
		{"coalescing", texts("a", "a", "a", "b", "b", "c"), []string{"a", "b", "c"}},
		{"empty between duplicates", texts("a", "", "a"), []string{"a"}},
		{"value returns after change", texts("a", "b", "a"), []string{"a", "b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			runTriggered(t, tt.reads, sink)
			if got := sink.got(); !slices.Equal(got, tt.want) {
				t.Fatalf("events = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPublishesOnTextChangedTopic(t *testing.T) {
	sink := &recordingSink{}
	runTriggered(t, texts("x"), sink)
	if len(sink.topics) != 1 || sink.topics[0] != "clipboard://text-changed" {
		t.Fatalf("topics = %q, want [clipboard://text-changed]", sink.topics)
	}
}

func TestEmptyNeverUpdatesLastSeen(t *testing.T) {
	w := newWatcher(&scriptedClipboard{reads: texts("")}, &recordingSink{})
	if got := w.tick("prev"); got != "prev" {
		t.Fatalf("last = %q after empty read, want %q", got, "prev")
	}
}

func TestFailedReadNeverUpdatesLastSeen(t *testing.T) {
	sink := &recordingSink{}
	w := newWatcher(&scriptedClipboard{reads: []read{{text: "ignored", err: errRead}}}, sink)
	if got := w.tick("prev"); got != "prev" {
		t.Fatalf("last = %q after failed read, want %q", got, "prev")
	}
	if len(sink.got()) != 0 {
		t.Fatalf("failed read produced events: %q", sink.got())
	}
}

func TestEmitFailureStillAdvancesLastSeen(t *testing.T) {
	sink := &recordingSink{err: errors.New("no listeners")}
	w := runTriggered(t, texts("a", "a", "b"), sink)

	if got, want := sink.got(), []string{"a", "b"}; !slices.Equal(got, want) {
		t.Fatalf("publish attempts = %q, want %q", got, want)
	}
	st := w.Stats()
	if st.EmitErrors != 2 || st.Emitted != 0 || st.Duplicates != 1 {
		t.Fatalf("stats = %+v, want 2 emit errors, 0 emitted, 1 duplicate", st)
	}
}

func TestStateDoesNotSurviveRestart(t *testing.T) {
	first := &recordingSink{}
	runTriggered(t, texts("v", "v"), first)

	second := &recordingSink{}
	runTriggered(t, texts("v"), second)

	if got := second.got(); !slices.Equal(got, []string{"v"}) {
		t.Fatalf("restarted watcher events = %q, want [v]", got)
	}
}

func TestStatsCountEveryOutcome(t *testing.T) {
	reads := []read{{text: "a"}, {err: errRead}, {text: ""}, {text: "a"}, {text: "b"}}
	w := runTriggered(t, reads, &recordingSink{})

	want := Stats{Ticks: 5, Reads: 4, ReadErrors: 1, Empty: 1, Duplicates: 1, Emitted: 2}
	if got := w.Stats(); got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}
}

func TestStartPollsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clip := &scriptedClipboard{reads: texts("", "hello", "hello", "world"), onDone: cancel}
	sink := &recordingSink{}
	w := Start(ctx, clip, sink, time.Millisecond)

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
	if got, want := sink.got(), []string{"hello", "world"}; !slices.Equal(got, want) {
		t.Fatalf("events = %q, want %q", got, want)
	}
}

func TestStartDefaultsInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := Start(ctx, &scriptedClipboard{}, &recordingSink{}, 0)
	cancel()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
	if st := w.Stats(); st.Ticks != 0 {
		t.Fatalf("ticks = %d before the first 500ms interval elapsed, want 0", st.Ticks)
	}
}

func TestTriggerModeReadsTextPresentAtStart(t *testing.T) {
	m := clip.NewMemory()
	defer m.Close()
	_ = m.WriteText("already there")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &recordingSink{}
	w := StartWithTrigger(ctx, m, sink, m.Watch())

	waitForEvents(t, sink, 1)
	_ = m.WriteText("already there")
	_ = m.WriteText("next")
	waitForEvents(t, sink, 2)

	cancel()
	<-w.Done()
	if got, want := sink.got(), []string{"already there", "next"}; !slices.Equal(got, want) {
		t.Fatalf("events = %q, want %q", got, want)
	}
}

func waitForEvents(t *testing.T, sink *recordingSink, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for len(sink.got()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("events = %q, want %d", sink.got(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
