package main

import (
	"context"
	"errors"
	"log/slog"

	"go.klb.dev/multitool/internal/bus"
	"go.klb.dev/multitool/internal/detect"
)

// noticeRelay logs every clipboard change and, when enabled, republishes it
// as a classified detect.Notice on clipboard://notice.
type noticeRelay struct {
	b       *bus.Bus
	sub     *bus.Subscription
	publish bool
}

// newNoticeRelay subscribes immediately; run consumes the subscription.
func newNoticeRelay(b *bus.Bus, publish bool) *noticeRelay {
	return &noticeRelay{
		b:       b,
		sub:     b.Subscribe("notice-relay", bus.SubscribeOptions{Topics: []string{bus.TopicTextChanged}, Buffer: 64}),
		publish: publish,
	}
}

func (r *noticeRelay) run(ctx context.Context) error {
	defer r.b.Unsubscribe(r.sub)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-r.sub.C():
			if !ok {
				return nil
			}
			bus.LogEvent("clipboard changed", ev)
			if r.publish {
				r.relay(ev.Payload)
			}
		}
	}
}

func (r *noticeRelay) relay(text string) {
	n := detect.NewNotice(text)
	payload, err := n.Encode()
	if err != nil {
		slog.Debug("notice encode failed", "err", err)
		return
	}
	err = r.b.Publish(bus.TopicNotice, payload)
	if err != nil && !errors.Is(err, bus.ErrNoSubscribers) {
		slog.Debug("notice not published", "err", err)
		return
	}
	slog.Debug("notice", "kind", n.Kind, "message", n.Message)
}
