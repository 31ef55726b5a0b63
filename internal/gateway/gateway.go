// Package gateway serves the EventService over HTTP/JSON and Server-Sent
// Events. Every handler is a thin proxy onto an eventsvc.Client, so auth and
// topic handling stay in one place.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"go.klb.dev/multitool/internal/bus"
	"go.klb.dev/multitool/internal/eventsvc"
)

// DefaultKeepAlive is how often an idle event stream gets a comment line.
const DefaultKeepAlive = 30 * time.Second

// Routes.
const (
	PathLatest = "/v1/latest"
	PathStatus = "/v1/status"
	PathEvents = "/v1/events"
	PathShow   = "/v1/show"
	PathHealth = "/healthz"
)

type gateway struct {
	mux       *gwruntime.ServeMux
	client    *eventsvc.Client
	keepAlive time.Duration
}

// New returns a mux serving the HTTP routes by calling client. A
// non-positive keepAlive means DefaultKeepAlive.
func New(client *eventsvc.Client, keepAlive time.Duration) (*gwruntime.ServeMux, error) {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	g := &gateway{
		mux:       gwruntime.NewServeMux(gwruntime.WithIncomingHeaderMatcher(headerMatcher)),
		client:    client,
		keepAlive: keepAlive,
	}
	routes := []struct {
		method, path string
		h            gwruntime.HandlerFunc
	}{
		{http.MethodGet, PathLatest, g.latest},
		{http.MethodGet, PathStatus, g.status},
		{http.MethodGet, PathEvents, g.events},
		{http.MethodPost, PathShow, g.show},
		{http.MethodGet, PathHealth, health},
	}
	for _, r := range routes {
		if err := g.mux.HandlePath(r.method, r.path, r.h); err != nil {
			return nil, fmt.Errorf("route %s %s: %w", r.method, r.path, err)
		}
	}
	return g.mux, nil
}

// Serve runs an HTTP server on ln until ln is closed. TLS is terminated
// before connections reach ln, so HTTP/2 arrives as cleartext h2c.
func Serve(ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h2c.NewHandler(h, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.Serve(ln)
}

// headerMatcher forwards the client's source name alongside the headers
// grpc-gateway forwards by default.
func headerMatcher(key string) (string, bool) {
	if strings.EqualFold(key, eventsvc.SourceHeader) {
		return eventsvc.SourceHeader, true
	}
	return gwruntime.DefaultHeaderMatcher(key)
}

func (g *gateway) annotate(r *http.Request, method, path string) (context.Context, error) {
	return gwruntime.AnnotateContext(r.Context(), g.mux, r, method, gwruntime.WithHTTPPathPattern(path))
}

func (g *gateway) latest(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	_, outbound := gwruntime.MarshalerForRequest(g.mux, r)
	ctx, err := g.annotate(r, eventsvc.LatestMethod, PathLatest)
	if err != nil {
		gwruntime.HTTPError(r.Context(), g.mux, outbound, w, r, err)
		return
	}
	payload, err := g.client.Latest(ctx, r.URL.Query().Get("topic"))
	if err != nil {
		gwruntime.HTTPError(ctx, g.mux, outbound, w, r, err)
		return
	}
	gwruntime.ForwardResponseMessage(ctx, g.mux, outbound, w, r, wrapperspb.String(payload))
}

func (g *gateway) status(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	_, outbound := gwruntime.MarshalerForRequest(g.mux, r)
	ctx, err := g.annotate(r, eventsvc.StatusMethod, PathStatus)
	if err != nil {
		gwruntime.HTTPError(r.Context(), g.mux, outbound, w, r, err)
		return
	}
	st, err := g.client.RawStatus(ctx)
	if err != nil {
		gwruntime.HTTPError(ctx, g.mux, outbound, w, r, err)
		return
	}
	gwruntime.ForwardResponseMessage(ctx, g.mux, outbound, w, r, st)
}

func (g *gateway) show(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	_, outbound := gwruntime.MarshalerForRequest(g.mux, r)
	ctx, err := g.annotate(r, eventsvc.ShowMethod, PathShow)
	if err != nil {
		gwruntime.HTTPError(r.Context(), g.mux, outbound, w, r, err)
		return
	}
	if err := g.client.Show(ctx); err != nil {
		gwruntime.HTTPError(ctx, g.mux, outbound, w, r, err)
		return
	}
	gwruntime.ForwardResponseMessage(ctx, g.mux, outbound, w, r, &emptypb.Empty{})
}

// events streams a topic as Server-Sent Events. Each event's data is the
// payload encoded as a JSON string, so multi-line text survives framing.
func (g *gateway) events(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	_, outbound := gwruntime.MarshalerForRequest(g.mux, r)
	ctx, err := g.annotate(r, eventsvc.WatchMethod, PathEvents)
	if err != nil {
		gwruntime.HTTPError(r.Context(), g.mux, outbound, w, r, err)
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = bus.TopicTextChanged
	}
	if strings.ContainsAny(topic, "\r\n") {
		gwruntime.HTTPError(ctx, g.mux, outbound, w, r, status.Error(codes.InvalidArgument, "topic must not contain line breaks"))
		return
	}
	stream, err := g.client.Watch(ctx, topic)
	if err == nil {
		err = streamOpened(stream)
	}
	if err != nil {
		gwruntime.HTTPError(ctx, g.mux, outbound, w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Debug("event stream cannot flush", "err", err)
		return
	}

	payloads := make(chan string)
	recvErr := make(chan error, 1)
	go func() {
		for {
			msg, err := stream.Recv()
			if err != nil {
				recvErr <- err
				return
			}
			select {
			case payloads <- msg.GetValue():
			case <-ctx.Done():
				return
			}
		}
	}()

	keepAlive := time.NewTicker(g.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-recvErr:
			slog.Debug("event stream ended", "topic", topic, "err", err)
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
		case p := <-payloads:
			data, err := json.Marshal(p)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", topic, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// streamOpened waits for the response headers of a watch. A call rejected
// before any header (auth, closed bus) arrives trailers-only: Header then
// reports nothing and the status is only visible through Recv.
func streamOpened(stream grpc.ServerStreamingClient[wrapperspb.StringValue]) error {
	md, err := stream.Header()
	if err != nil || md != nil {
		return err
	}
	if _, err := stream.Recv(); err != nil {
		if errors.Is(err, io.EOF) {
			return status.Error(codes.Unavailable, "watch ended before it started")
		}
		return err
	}
	return status.Error(codes.Internal, "watch sent a message without headers")
}

func health(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, "ok")
}
