package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.klb.dev/multitool/internal/eventsvc"
	"go.klb.dev/multitool/internal/ipc"
	"go.klb.dev/multitool/internal/tlsconf"
)

// defaultPort is used by --addr examples and by clients probing defaultHosts.
const defaultPort = 8753

// defaultHosts is the order tried when no explicit --server is given and
// no daemon answers on the IPC socket.
var defaultHosts = []string{
	"host.docker.internal",     // Docker Desktop (macOS / Windows / Docker Desktop Linux)
	"host.containers.internal", // Podman rootless
	"localhost",
}

func isContainerID(s string) bool {
	if len(s) < 12 || len(s) > 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// defaultSource returns a human-readable identifier for this host.
func defaultSource() string {
	for _, env := range []string{
		"MULTITOOL_SOURCE",
		"CONTAINER_NAME",
		"COMPOSE_SERVICE",
		"SERVICE_NAME",
		"HOSTNAME_FRIENDLY",
	} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	if isContainerID(h) {
		return "container-" + h[:8]
	}
	return h
}

// addClientFlags adds the flags shared by commands that talk to a daemon.
func addClientFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("server", "", "daemon address host[:port] (default: IPC socket, then "+strconv.Itoa(defaultPort)+" on well-known hosts)")
	f.String("token", "", "shared secret")
	f.String("source", defaultSource(), "name shown in the daemon's subscriber list")
	f.Duration("timeout", 5*time.Second, "connect timeout")
	addConfigFlag(cmd)
}

// connect returns a client for the daemon. The IPC socket is preferred unless
// --server was given. transport describes the connection for humans.
func connect(ctx context.Context, cmd *cobra.Command, v *viper.Viper) (client *eventsvc.Client, transport string, closeFn func(), err error) {
	source := v.GetString("source")
	creds := &clientCreds{token: v.GetString("token"), source: source}

	if !cmd.Flags().Changed("server") && v.GetString("server") == "" && ipc.IsRunning() {
		conn, err := dialIPC(creds)
		if err == nil {
			return eventsvc.NewClient(conn), fmt.Sprintf("ipc (%s)", ipc.SocketPath()), func() { _ = conn.Close() }, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, v.GetDuration("timeout"))
	defer cancel()
	conn, addr, err := dialServer(ctx, v.GetString("server"), creds)
	if err != nil {
		return nil, "", nil, err
	}
	return eventsvc.NewClient(conn), fmt.Sprintf("tcp+tls (%s)", addr), func() { _ = conn.Close() }, nil
}

// dialIPC returns a *grpc.ClientConn connected to the local IPC socket.
// The token is not needed there, the source name still is.
func dialIPC(creds *clientCreds) (*grpc.ClientConn, error) {
	return grpc.NewClient(ipc.Target,
		grpc.WithContextDialer(ipc.DialContext),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(&clientCreds{source: creds.source}),
	)
}

// dialServer tries hosts in order and returns the first reachable TLS
// connection. If server is non-empty only that address is tried. The token
// keys both TLS and per-RPC auth.
func dialServer(ctx context.Context, server string, creds *clientCreds) (*grpc.ClientConn, string, error) {
	var addrs []string
	if server != "" {
		addrs = []string{withDefaultPort(server)}
	} else {
		for _, h := range defaultHosts {
			addrs = append(addrs, net.JoinHostPort(h, strconv.Itoa(defaultPort)))
		}
	}

	id, err := tlsconf.ForToken(creds.token)
	if err != nil {
		return nil, "", err
	}
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(id.ClientCredentials()),
		grpc.WithPerRPCCredentials(creds),
	}

	var lastErr error
	for _, addr := range addrs {
		conn, err := grpc.NewClient(addr, opts...)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", addr, err)
			continue
		}
		// Verify reachability before handing the connection out.
		if _, err := eventsvc.NewClient(conn).RawStatus(ctx); err != nil {
			_ = conn.Close()
			lastErr = fmt.Errorf("%s: %w", addr, err)
			continue
		}
		return conn, addr, nil
	}
	return nil, "", fmt.Errorf("no reachable multitool daemon: %w", lastErr)
}

func withDefaultPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, strconv.Itoa(defaultPort))
}

type clientCreds struct {
	token  string
	source string
}

func (c *clientCreds) GetRequestMetadata(_ context.Context, _ ...string) (map[string]string, error) {
	md := make(map[string]string, 2)
	if c.token != "" {
		md["authorization"] = "Bearer " + c.token
	}
	if c.source != "" {
		md[eventsvc.SourceHeader] = c.source
	}
	return md, nil
}

func (c *clientCreds) RequireTransportSecurity() bool { return false }
