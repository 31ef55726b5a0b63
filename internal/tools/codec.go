package tools

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ErrInvalidInput is returned when text cannot be decoded.
var ErrInvalidInput = errors.New("invalid input for decoding")

// EncodeBase64 encodes the UTF-8 bytes of in with the padded standard
// alphabet.
func EncodeBase64(in string) string {
	return base64.StdEncoding.EncodeToString([]byte(in))
}

// DecodeBase64 accepts the standard and URL-safe alphabets, with or without
// padding, and ignores surrounding whitespace. The result must be UTF-8.
func DecodeBase64(in string) (string, error) {
	s := strings.TrimRight(strings.Join(strings.Fields(in), ""), "=")
	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)
	raw, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: decoded bytes are not UTF-8 text", ErrInvalidInput)
	}
	return string(raw), nil
}

// EncodeURIComponent percent-encodes every byte outside
// A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func EncodeURIComponent(in string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(in); i++ {
		c := in[i]
		if uriUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

// DecodeURIComponent reverses EncodeURIComponent. A '+' stays a '+'.
func DecodeURIComponent(in string) (string, error) {
	out, err := url.PathUnescape(in)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !utf8.ValidString(out) {
		return "", fmt.Errorf("%w: escapes do not form UTF-8 text", ErrInvalidInput)
	}
	return out, nil
}

func uriUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
