package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.klb.dev/multitool/internal/bus"
	"go.klb.dev/multitool/internal/detect"
)

func TestNoticeRelay(t *testing.T) {
	b := bus.New()
	relay := newNoticeRelay(b, true)
	notices := b.Subscribe("test", bus.SubscribeOptions{Topics: []string{bus.TopicNotice}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.run(ctx) }()

	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig"
	if err := b.Publish(bus.TopicTextChanged, jwt); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-notices.C():
		var n detect.Notice
		if err := json.Unmarshal([]byte(ev.Payload), &n); err != nil {
			t.Fatalf("decode %q: %v", ev.Payload, err)
		}
		if n.Kind != detect.KindJWT || n.Message != "JWT token detected in clipboard." {
			t.Fatalf("notice = %+v", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no notice published")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := len(b.Subscribers()); n != 1 {
		t.Fatalf("relay still subscribed: %d subscribers", n)
	}
}

func TestNoticeRelayDisabled(t *testing.T) {
	b := bus.New()
	relay := newNoticeRelay(b, false)
	notices := b.Subscribe("test", bus.SubscribeOptions{Topics: []string{bus.TopicNotice}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = relay.run(ctx) }()

	_ = b.Publish(bus.TopicTextChanged, "plain")
	select {
	case ev := <-notices.C():
		t.Fatalf("unexpected notice %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
