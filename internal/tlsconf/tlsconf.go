// Package tlsconf turns the daemon's shared token into a TLS identity. The
// daemon serves the event listener with it and clients pin it, so the token
// is the only thing that ever has to be shared.
//
//	HKDF-SHA256(ikm=token, salt="multitool-event-listener-v1", info="p256-scalar")
//	→ 32-byte candidates → first one valid for P-256 is the private key
//
// The certificate wrapped around the key is regenerated on every Listen and
// carries nothing clients check.
package tlsconf

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"time"

	"golang.org/x/crypto/hkdf"
	"google.golang.org/grpc/credentials"
)

// DefaultToken keys the identity when the daemon runs without --token.
const DefaultToken = "multitool"

const (
	serverName = "multitool"
	hkdfSalt   = "multitool-event-listener-v1"
	hkdfInfo   = "p256-scalar"
)

// ErrKeyMismatch is returned by a client handshake when the server's key was
// derived from a different token.
var ErrKeyMismatch = errors.New("tlsconf: server key does not match token")

// Identity is the key pair derived from one token.
type Identity struct {
	key *ecdsa.PrivateKey
	pub []byte // PKIX DER

	// Default is true when the token was empty and DefaultToken was used.
	Default bool
}

// ForToken derives the identity for token. Daemon and client call it with
// the same --token value; empty means DefaultToken on both sides.
func ForToken(token string) (*Identity, error) {
	id := &Identity{}
	if token == "" {
		token = DefaultToken
		id.Default = true
	}
	key, err := deriveKey(token)
	if err != nil {
		return nil, err
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("tlsconf: marshal public key: %w", err)
	}
	id.key, id.pub = key, pub
	return id, nil
}

// Fingerprint is the first 8 bytes of the public key's SHA-256, hex encoded.
// The daemon logs it at startup.
func (id *Identity) Fingerprint() string {
	sum := sha256.Sum256(id.pub)
	return hex.EncodeToString(sum[:8])
}

// Listen wraps ln in TLS 1.3. ALPN offers h2 and http/1.1 so gRPC and the
// HTTP gateway can share the port.
func (id *Identity) Listen(ln net.Listener) (net.Listener, error) {
	cert, err := id.certificate()
	if err != nil {
		return nil, err
	}
	return tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"h2", "http/1.1"},
		MinVersion:   tls.VersionTLS13,
	}), nil
}

// ClientCredentials accepts only a server holding this identity's key.
func (id *Identity) ClientCredentials() credentials.TransportCredentials {
	return credentials.NewTLS(&tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // VerifyConnection pins the key instead
		ServerName:         serverName,
		MinVersion:         tls.VersionTLS13,
		VerifyConnection:   id.verify,
	})
}

func (id *Identity) verify(cs tls.ConnectionState) error {
	if len(cs.PeerCertificates) == 0 {
		return errors.New("tlsconf: server presented no certificate")
	}
	got, err := x509.MarshalPKIXPublicKey(cs.PeerCertificates[0].PublicKey)
	if err != nil {
		return fmt.Errorf("tlsconf: server public key: %w", err)
	}
	if !bytes.Equal(got, id.pub) {
		return ErrKeyMismatch
	}
	return nil
}

func (id *Identity) certificate() (tls.Certificate, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlsconf: serial: %w", err)
	}
	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: serverName},
		DNSNames:     []string{serverName},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.AddDate(10, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &id.key.PublicKey, id.key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlsconf: certificate: %w", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: id.key}, nil
}

// deriveKey reads 32-byte candidates from HKDF until one is a valid P-256
// scalar. A candidate is rejected with probability about 2^-32.
func deriveKey(token string) (*ecdsa.PrivateKey, error) {
	r := hkdf.New(sha256.New, []byte(token), []byte(hkdfSalt), []byte(hkdfInfo))
	scalar := make([]byte, 32)
	for range 8 {
		if _, err := io.ReadFull(r, scalar); err != nil {
			return nil, fmt.Errorf("tlsconf: hkdf: %w", err)
		}
		if key, err := ecdsa.ParseRawPrivateKey(elliptic.P256(), scalar); err == nil {
			return key, nil
		}
	}
	return nil, errors.New("tlsconf: no valid key derived")
}
