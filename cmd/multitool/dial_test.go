package main

import (
	"context"
	"net"
	"testing"
)

func TestWithDefaultPort(t *testing.T) {
	tests := []struct{ in, want string }{
		{"example.com", "example.com:8753"},
		{"example.com:9000", "example.com:9000"},
		{"127.0.0.1", "127.0.0.1:8753"},
		{"[::1]:1", "[::1]:1"},
	}
	for _, tt := range tests {
		if got := withDefaultPort(tt.in); got != tt.want {
			t.Errorf("withDefaultPort(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsContainerID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"3f4e2a1b9c8d", true},
		{"laptop", false},
		{"3F4E2A1B9C8D", false},
		{"3f4e2a1b9c8", false},
	}
	for _, tt := range tests {
		if got := isContainerID(tt.in); got != tt.want {
			t.Errorf("isContainerID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoopbackAddr(t *testing.T) {
	tests := []struct {
		addr net.Addr
		want string
	}{
		{&net.TCPAddr{IP: net.IPv4zero, Port: 8753}, "127.0.0.1:8753"},
		{&net.TCPAddr{IP: net.IPv6unspecified, Port: 8753}, "[::1]:8753"},
		{&net.TCPAddr{Port: 8753}, "127.0.0.1:8753"},
		{&net.TCPAddr{IP: net.ParseIP("10.0.0.2"), Port: 1}, "10.0.0.2:1"},
	}
	for _, tt := range tests {
		if got := loopbackAddr(tt.addr); got != tt.want {
			t.Errorf("loopbackAddr(%v) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestClientCreds(t *testing.T) {
	md, err := (&clientCreds{token: "t", source: "laptop"}).GetRequestMetadata(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if md["authorization"] != "Bearer t" || md["x-multitool-source"] != "laptop" {
		t.Fatalf("metadata = %v", md)
	}
	md, _ = (&clientCreds{}).GetRequestMetadata(context.Background())
	if len(md) != 0 {
		t.Fatalf("empty creds sent %v", md)
	}
}
