// Package bus implements the in-process event broker that carries clipboard
// and window events to subscribers. It is transport-agnostic: the gRPC
// service, the HTTP gateway and the notice relay all subscribe here, and the
// clipboard watcher publishes here.
package bus

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Well-known topics.
const (
	TopicTextChanged = "clipboard://text-changed"
	TopicNotice      = "clipboard://notice"
	TopicWindowShow  = "window://show"
)

// DefaultBuffer is the per-subscription channel capacity used when
// SubscribeOptions.Buffer is not positive.
const DefaultBuffer = 16

// IsCommand reports whether topic carries one-shot commands rather than
// state. Commands are never replayed to new subscribers.
func IsCommand(topic string) bool {
	return strings.HasPrefix(topic, "window://")
}

var (
	// ErrNoSubscribers is returned by Publish when nobody listens on the topic.
	// The payload is still recorded as the topic's latest value.
	ErrNoSubscribers = errors.New("bus: no subscribers")
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("bus: closed")
)

// Event is a single published payload.
type Event struct {
	Topic     string    `json:"topic"`
	Payload   string    `json:"payload"`
	Published time.Time `json:"published"`
}

// SubscriberInfo describes a registered subscription.
type SubscriberInfo struct {
	ID           string    `json:"id"`
	Topics       []string  `json:"topics,omitempty"`
	SubscribedAt time.Time `json:"subscribed_at"`
	Delivered    uint64    `json:"delivered"`
	Dropped      uint64    `json:"dropped"`
}

// Subscription receives events for a set of topics. An empty topic set means
// every topic.
type Subscription struct {
	id     string
	topics map[string]struct{}
	ch     chan Event
	since  time.Time

	// guarded by Bus.mu
	delivered uint64
	dropped   uint64
	closed    bool
}

// ID returns the identifier given to Subscribe.
func (s *Subscription) ID() string { return s.id }

// C returns the receive channel. It is closed by Unsubscribe or Bus.Close.
func (s *Subscription) C() <-chan Event { return s.ch }

func (s *Subscription) wants(topic string) bool {
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[topic]
	return ok
}

// Bus routes published events to every matching subscription.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	latest map[string]Event
	closed bool
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{
		subs:   make(map[*Subscription]struct{}),
		latest: make(map[string]Event),
	}
}

// SubscribeOptions configures a subscription.
type SubscribeOptions struct {
	// Topics to receive; empty means every topic.
	Topics []string
	// Buffer is the channel capacity.
	Buffer int
	// Replay queues the latest value of each subscribed state topic
	// immediately, oldest first.
	Replay bool
}

// Subscribe registers a subscription.
func (b *Bus) Subscribe(id string, opts SubscribeOptions) *Subscription {
	size := opts.Buffer
	if size <= 0 {
		size = DefaultBuffer
	}
	s := &Subscription{
		id:     id,
		topics: make(map[string]struct{}, len(opts.Topics)),
		ch:     make(chan Event, size),
		since:  time.Now(),
	}
	for _, t := range opts.Topics {
		s.topics[t] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.closed = true
		close(s.ch)
		return s
	}
	b.subs[s] = struct{}{}

	if opts.Replay {
		replay := make([]Event, 0, len(b.latest))
		for topic, ev := range b.latest {
			if s.wants(topic) && !IsCommand(topic) {
				replay = append(replay, ev)
			}
		}
		sort.Slice(replay, func(i, j int) bool { return replay[i].Published.Before(replay[j].Published) })
		for _, ev := range replay {
			b.deliverLocked(s, ev)
		}
	}

	slog.Info("subscriber registered", "id", id, "topics", opts.Topics, "total", len(b.subs))
	return s
}

// Unsubscribe removes s and closes its channel. It is safe to call more than
// once.
func (b *Bus) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	if _, ok := b.subs[s]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subs, s)
	s.closed = true
	close(s.ch)
	total := len(b.subs)
	b.mu.Unlock()

	slog.Info("subscriber unregistered", "id", s.id, "total", total)
}

// Publish records payload as the latest value of topic and fans it out to
// every matching subscription without blocking. A subscriber whose buffer is
// full misses this event.
func (b *Bus) Publish(topic, payload string) error {
	ev := Event{Topic: topic, Payload: payload, Published: time.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.latest[topic] = ev

	n := 0
	for s := range b.subs {
		if !s.wants(topic) {
			continue
		}
		n++
		b.deliverLocked(s, ev)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", topic, ErrNoSubscribers)
	}
	return nil
}

// deliverLocked must be called with b.mu held for writing.
func (b *Bus) deliverLocked(s *Subscription, ev Event) {
	select {
	case s.ch <- ev:
		s.delivered++
	default:
		s.dropped++
		slog.Warn("subscriber buffer full, dropping", "id", s.id, "topic", ev.Topic)
	}
}

// Latest returns the most recent event published on topic.
func (b *Bus) Latest(topic string) (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ev, ok := b.latest[topic]
	return ev, ok
}

// Subscribers returns a snapshot of all current subscriptions, ordered by
// subscription time.
func (b *Bus) Subscribers() []SubscriberInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]SubscriberInfo, 0, len(b.subs))
	for s := range b.subs {
		info := SubscriberInfo{
			ID:           s.id,
			SubscribedAt: s.since,
			Delivered:    s.delivered,
			Dropped:      s.dropped,
		}
		for t := range s.topics {
			info.Topics = append(info.Topics, t)
		}
		sort.Strings(info.Topics)
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubscribedAt.Before(out[j].SubscribedAt) })
	return out
}

// Close unsubscribes everyone. Later publishes fail with ErrClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		s.closed = true
		close(s.ch)
	}
	b.subs = make(map[*Subscription]struct{})
}
