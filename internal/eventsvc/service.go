// Package eventsvc implements the EventService gRPC server, which exposes the
// in-process event bus to subscribers in other processes.
package eventsvc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"go.klb.dev/multitool/internal/bus"
	"go.klb.dev/multitool/internal/watcher"
)

// SourceHeader is the metadata key clients use to name themselves in the
// subscriber list.
const SourceHeader = "x-multitool-source"

// Info is the static part of a status report.
type Info struct {
	Version  string    `json:"version"`
	Backend  string    `json:"backend"`
	Trigger  string    `json:"trigger"`
	Shortcut string    `json:"shortcut,omitempty"`
	Started  time.Time `json:"started"`
}

// Report is the daemon status returned by Status.
type Report struct {
	Info
	Watcher     watcher.Stats        `json:"watcher"`
	Subscribers []bus.SubscriberInfo `json:"subscribers"`
	LastChange  *time.Time           `json:"last_change,omitempty"`
}

// Service implements Server.
type Service struct {
	b     *bus.Bus
	info  Info
	stats func() watcher.Stats
	token string // empty = no auth
}

var _ Server = (*Service)(nil)

// New returns a Service backed by b. stats may be nil. token may be empty to
// disable auth.
func New(b *bus.Bus, info Info, stats func() watcher.Stats, token string) *Service {
	return &Service{b: b, info: info, stats: stats, token: token}
}

// Latest implements Server.Latest.
func (s *Service) Latest(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	topic := canonicalize(req.GetValue())
	ev, ok := s.b.Latest(topic)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "nothing published on %s yet", topic)
	}
	return wrapperspb.String(ev.Payload), nil
}

// Watch implements Server.Watch. The latest value of a state topic is sent
// first.
func (s *Service) Watch(req *wrapperspb.StringValue, stream grpc.ServerStreamingServer[wrapperspb.StringValue]) error {
	ctx := stream.Context()
	if err := s.auth(ctx); err != nil {
		return err
	}

	topic := canonicalize(req.GetValue())
	id := sourceFromCtx(ctx) + "/watch/" + topic
	sub := s.b.Subscribe(id, bus.SubscribeOptions{Topics: []string{topic}, Replay: true})
	defer s.b.Unsubscribe(sub)

	// Headers tell the client the watch is live before any event arrives.
	if err := stream.SendHeader(metadata.MD{}); err != nil {
		return err
	}

	slog.Info("watch started", "peer", id)
	defer slog.Info("watch ended", "peer", id)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C():
			if !ok {
				return status.Error(codes.Unavailable, "event bus closed")
			}
			if err := stream.Send(wrapperspb.String(ev.Payload)); err != nil {
				return err
			}
		}
	}
}

// Status implements Server.Status.
func (s *Service) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	st, err := toStruct(s.Report())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return st, nil
}

// Show implements Server.Show.
func (s *Service) Show(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	err := s.b.Publish(bus.TopicWindowShow, "")
	switch {
	case errors.Is(err, bus.ErrClosed):
		return nil, status.Error(codes.Unavailable, "event bus closed")
	case err != nil:
		slog.Debug("show request not delivered", "err", err)
	}
	return &emptypb.Empty{}, nil
}

// Report builds the current status report.
func (s *Service) Report() Report {
	r := Report{Info: s.info, Subscribers: s.b.Subscribers()}
	if s.stats != nil {
		r.Watcher = s.stats()
	}
	if ev, ok := s.b.Latest(bus.TopicTextChanged); ok {
		t := ev.Published
		r.LastChange = &t
	}
	return r
}

// auth validates the bearer token in ctx metadata. Skipped when s.token is empty.
func (s *Service) auth(ctx context.Context) error {
	if s.token == "" {
		return nil
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return status.Error(codes.Unauthenticated, "missing authorization header")
	}
	tok := strings.TrimPrefix(vals[0], "Bearer ")
	if tok != s.token {
		return status.Error(codes.Unauthenticated, "invalid token")
	}
	return nil
}

func sourceFromCtx(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(SourceHeader); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if a := p.Addr.String(); a != "" && a != "@" {
			return a
		}
	}
	return "unknown"
}

func canonicalize(topic string) string {
	if topic == "" {
		return bus.TopicTextChanged
	}
	return topic
}

// toStruct converts v to a Struct through its JSON encoding.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}
