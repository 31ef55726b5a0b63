package tools

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidJWT is returned when a token's header or payload cannot be
// decoded.
var ErrInvalidJWT = errors.New("invalid JWT token")

// JWT is a decoded token, each part re-indented for reading. The signature
// is not verified.
type JWT struct {
	Header  string
	Payload string
}

// DecodeJWT splits a compact JWS and decodes its header and payload.
func DecodeJWT(token string) (JWT, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return JWT{}, fmt.Errorf("%w: want 3 segments, got %d", ErrInvalidJWT, len(parts))
	}
	header, err := decodeSegment(parts[0])
	if err != nil {
		return JWT{}, fmt.Errorf("%w: header: %v", ErrInvalidJWT, err)
	}
	payload, err := decodeSegment(parts[1])
	if err != nil {
		return JWT{}, fmt.Errorf("%w: payload: %v", ErrInvalidJWT, err)
	}
	return JWT{Header: header, Payload: payload}, nil
}

func decodeSegment(seg string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(seg, "="))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}
