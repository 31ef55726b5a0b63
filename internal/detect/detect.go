// Package detect classifies clipboard text so that subscribers can show a
// meaningful alert ("JWT token detected in clipboard.") instead of a generic
// one.
package detect

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

// Kind is the detected shape of a clipboard payload.
type Kind string

const (
	KindJWT    Kind = "jwt"
	KindURL    Kind = "url"
	KindJSON   Kind = "json"
	KindUUID   Kind = "uuid"
	KindBase64 Kind = "base64"
	KindText   Kind = "text"
)

const previewLen = 80

var (
	uuidRe   = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	base64Re = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)
)

// Classify returns the first matching kind, checked in the order jwt, url,
// json, uuid, base64, text.
func Classify(text string) Kind {
	s := strings.TrimSpace(text)
	switch {
	case s == "":
		return KindText
	case isJWT(s):
		return KindJWT
	case isURL(s):
		return KindURL
	case isJSON(s):
		return KindJSON
	case uuidRe.MatchString(s):
		return KindUUID
	case isBase64(s):
		return KindBase64
	default:
		return KindText
	}
}

// isJWT accepts header.payload[.signature] where the header is a base64url
// encoded JSON object. Such headers always start with "ey" ('{"' encoded).
func isJWT(s string) bool {
	if !strings.HasPrefix(s, "ey") {
		return false
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return false
	}
	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	var obj map[string]any
	return json.Unmarshal(header, &obj) == nil
}

func isURL(s string) bool {
	if strings.ContainsAny(s, " \n\t") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func isJSON(s string) bool {
	if !(strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")) {
		return false
	}
	return json.Valid([]byte(s))
}

// isBase64 requires padded standard encoding and a minimum length, so that
// ordinary words are not reported as base64.
func isBase64(s string) bool {
	if len(s) < 16 || len(s)%4 != 0 || !base64Re.MatchString(s) {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}

// Notice is the alert published alongside a clipboard change.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Preview string `json:"preview"`
	Length  int    `json:"length"`
}

var messages = map[Kind]string{
	KindJWT:    "JWT token detected in clipboard.",
	KindURL:    "URL copied to clipboard.",
	KindJSON:   "JSON copied to clipboard.",
	KindUUID:   "UUID copied to clipboard.",
	KindBase64: "Base64 data copied to clipboard.",
	KindText:   "New text copied to clipboard.",
}

// NewNotice classifies text and builds its alert.
func NewNotice(text string) Notice {
	k := Classify(text)
	return Notice{
		Kind:    k,
		Message: messages[k],
		Preview: preview(text),
		Length:  len([]rune(text)),
	}
}

// Encode returns the notice as JSON.
func (n Notice) Encode() (string, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}
	return string(r[:previewLen-1]) + "…"
}
