package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soheilhy/cmux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"go.klb.dev/multitool/internal/bus"
	"go.klb.dev/multitool/internal/clip"
	"go.klb.dev/multitool/internal/eventsvc"
	"go.klb.dev/multitool/internal/gateway"
	"go.klb.dev/multitool/internal/ipc"
	"go.klb.dev/multitool/internal/shortcut"
	"go.klb.dev/multitool/internal/tlsconf"
	"go.klb.dev/multitool/internal/watcher"
)

// Trigger modes.
const (
	triggerPoll  = "poll"
	triggerWatch = "watch"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clipboard watcher and shortcut daemon",
		Long: `Starts the multitool daemon. It checks the system clipboard every
--poll-interval and publishes clipboard://text-changed whenever the text differs
from the last text it published. Each change is also classified and published
as a JSON notice on clipboard://notice. Pressing --shortcut publishes
window://show.

Subscribers connect over the local IPC socket. With --addr the same gRPC
service, an HTTP/JSON API and a Server-Sent-Events stream are also served on
one TLS port keyed by --token.

Config file search order:
  /etc/multitool/multitool.toml
  $HOME/.config/multitool/multitool.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → MULTITOOL_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runDaemon(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.Duration("poll-interval", watcher.DefaultPollInterval, "how often the clipboard is checked")
	f.String("trigger", triggerPoll, "what starts a clipboard check: poll (every --poll-interval) or watch (backend change hints)")
	f.String("clipboard", string(clip.KindAuto), "clipboard backend: auto|native|atotto|headless|memory")
	f.String("shortcut", shortcut.DefaultAccelerator, "global shortcut that shows the main window")
	f.Bool("no-shortcut", false, "do not register the global shortcut")
	f.Bool("no-notice", false, "do not publish clipboard://notice events")
	f.String("addr", "", "TCP listen address for gRPC + HTTP, e.g. 127.0.0.1:8753 (empty = IPC only)")
	f.String("token", "", "shared secret for TCP clients; also keys the TLS certificate")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

// openBackend creates the daemon's clipboard. Tests replace it to share a
// clip.Memory with the running daemon.
var openBackend = clip.New

func runDaemon(ctx context.Context, v *viper.Viper) error {
	setupLogging(v)

	kind, err := clip.ParseKind(v.GetString("clipboard"))
	if err != nil {
		return err
	}
	trigger := v.GetString("trigger")
	if trigger != triggerPoll && trigger != triggerWatch {
		return fmt.Errorf("unknown trigger %q (want %s or %s)", trigger, triggerPoll, triggerWatch)
	}
	interval := v.GetDuration("poll-interval")
	if interval <= 0 {
		interval = watcher.DefaultPollInterval
	}
	if ipc.IsRunning() {
		return fmt.Errorf("a multitool daemon is already listening on %s", ipc.SocketPath())
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(kind)
	if err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	defer backend.Close()

	b := bus.New()
	defer b.Close()

	// The relay subscribes before the watcher starts so the first change is
	// never missed.
	relay := newNoticeRelay(b, !v.GetBool("no-notice"))

	var w *watcher.Watcher
	mode := fmt.Sprintf("%s every %s", triggerPoll, interval)
	if trigger == triggerWatch {
		mode = triggerWatch
		w = watcher.StartWithTrigger(ctx, backend, b, backend.Watch())
	} else {
		w = watcher.Start(ctx, backend, b, interval)
	}

	accel := ""
	if !v.GetBool("no-shortcut") {
		accel = v.GetString("shortcut")
		unbind := shortcut.Bind(shortcut.NewHotkey(), accel, func() {
			slog.Info("shortcut pressed", "accelerator", accel)
			if err := b.Publish(bus.TopicWindowShow, ""); err != nil {
				slog.Debug("window show not delivered", "err", err)
			}
		})
		defer unbind()
	}

	info := eventsvc.Info{
		Version:  Version,
		Backend:  backend.Name(),
		Trigger:  mode,
		Shortcut: accel,
		Started:  time.Now(),
	}

	slog.Info("multitool starting",
		"version", Version,
		"clipboard", backend.Name(),
		"trigger", mode,
		"shortcut", accel,
		"addr", v.GetString("addr"),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return relay.run(gctx) })
	g.Go(func() error {
		<-w.Done()
		return nil
	})

	// IPC socket for local UI processes and the CLI tools. No token: the
	// socket is owner-only.
	ipcSrv := grpc.NewServer()
	eventsvc.Register(ipcSrv, eventsvc.New(b, info, w.Stats, ""))
	ipcLn, err := ipc.Listen()
	if err != nil {
		slog.Warn("IPC socket unavailable", "err", err)
	} else {
		slog.Info("IPC socket listening", "path", ipc.SocketPath())
		g.Go(func() error { return ignoreClosed(ipcSrv.Serve(ipcLn)) })
	}

	var tcp *tcpServer
	if addr := v.GetString("addr"); addr != "" {
		svc := eventsvc.New(b, info, w.Stats, v.GetString("token"))
		tcp, err = startTCP(g, addr, v.GetString("token"), svc)
		if err != nil {
			ipcSrv.Stop()
			return err
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("multitool shutting down")
		b.Close()
		ipcSrv.Stop()
		if tcp != nil {
			tcp.stop()
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// tcpServer is the TLS listener that carries both gRPC and HTTP.
type tcpServer struct {
	mux  cmux.CMux
	grpc *grpc.Server
	conn *grpc.ClientConn
}

// startTCP listens on addr, wraps the listener in token-keyed TLS and
// splits it with cmux: gRPC requests go to the EventService, everything else
// to the HTTP gateway, which itself calls the EventService over a loopback
// gRPC connection.
func startTCP(g *errgroup.Group, addr, token string, svc *eventsvc.Service) (*tcpServer, error) {
	raw, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	id, err := tlsconf.ForToken(token)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	ln, err := id.Listen(raw)
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("tls: %w", err)
	}
	slog.Info("TLS key", "fingerprint", id.Fingerprint(), "default_token", id.Default)

	srv := grpc.NewServer()
	eventsvc.Register(srv, svc)

	// Loopback connection for the gateway. The gateway forwards the HTTP
	// client's Authorization header, so no credentials are attached here.
	conn, err := grpc.NewClient(loopbackAddr(raw.Addr()), grpc.WithTransportCredentials(id.ClientCredentials()))
	if err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("gateway dial: %w", err)
	}
	mux, err := gateway.New(eventsvc.NewClient(conn), gateway.DefaultKeepAlive)
	if err != nil {
		_ = conn.Close()
		_ = ln.Close()
		return nil, err
	}

	m := cmux.New(ln)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	g.Go(func() error { return ignoreClosed(srv.Serve(grpcL)) })
	g.Go(func() error { return ignoreClosed(gateway.Serve(httpL, mux)) })
	g.Go(func() error { return ignoreClosed(m.Serve()) })

	slog.Info("listening", "addr", raw.Addr(), "grpc", true, "http", true)
	return &tcpServer{mux: m, grpc: srv, conn: conn}, nil
}

func (t *tcpServer) stop() {
	_ = t.conn.Close()
	t.grpc.Stop()
	t.mux.Close()
}

// loopbackAddr turns a wildcard listen address into one the process can dial.
func loopbackAddr(a net.Addr) string {
	tcp, ok := a.(*net.TCPAddr)
	if !ok {
		return a.String()
	}
	host := tcp.IP.String()
	if tcp.IP == nil || tcp.IP.IsUnspecified() {
		host = "127.0.0.1"
		if tcp.IP != nil && tcp.IP.To4() == nil {
			host = "::1"
		}
	}
	return net.JoinHostPort(host, fmt.Sprint(tcp.Port))
}

func ignoreClosed(err error) error {
	if err == nil ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, cmux.ErrListenerClosed) ||
		errors.Is(err, cmux.ErrServerClosed) ||
		errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}
