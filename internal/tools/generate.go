package tools

import (
	"crypto/md5" //nolint:gosec // listed for checksums, not security
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // listed for checksums, not security
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Digest is one named hash of a text.
type Digest struct {
	Name string
	Hex  string
}

// Hashes returns MD5, SHA1, SHA-256 and SHA-512 of the UTF-8 bytes of in, in
// that order.
func Hashes(in string) []Digest {
	algs := []struct {
		name string
		h    hash.Hash
	}{
		{"MD5", md5.New()},
		{"SHA1", sha1.New()},
		{"SHA-256", sha256.New()},
		{"SHA-512", sha512.New()},
	}
	out := make([]Digest, 0, len(algs))
	for _, a := range algs {
		a.h.Write([]byte(in))
		out = append(out, Digest{Name: a.name, Hex: hex.EncodeToString(a.h.Sum(nil))})
	}
	return out
}

// UUIDOptions controls UUID generation.
type UUIDOptions struct {
	Version   int // 1 or 4
	Count     int
	NoHyphens bool
	Uppercase bool
}

// UUIDs generates opts.Count identifiers (at least one).
func UUIDs(opts UUIDOptions) ([]string, error) {
	if opts.Count < 1 {
		opts.Count = 1
	}
	out := make([]string, 0, opts.Count)
	for range opts.Count {
		var (
			id  uuid.UUID
			err error
		)
		switch opts.Version {
		case 1:
			id, err = uuid.NewUUID()
		case 0, 4:
			id, err = uuid.NewRandom()
		default:
			return nil, fmt.Errorf("unsupported UUID version %d (want 1 or 4)", opts.Version)
		}
		if err != nil {
			return nil, fmt.Errorf("uuid v%d: %w", opts.Version, err)
		}
		s := id.String()
		if opts.NoHyphens {
			s = strings.ReplaceAll(s, "-", "")
		}
		if opts.Uppercase {
			s = strings.ToUpper(s)
		}
		out = append(out, s)
	}
	return out, nil
}

// Password character classes.
const (
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	symbolChars  = "!@#$%^&*()_+~`|}{[]:;?><,./-="
	similarChars = "ilLI|`oO01"
)

// DefaultPasswordLength is used when PasswordOptions.Length is zero.
const DefaultPasswordLength = 16

// ErrEmptyCharset means every character class was disabled.
var ErrEmptyCharset = errors.New("select at least one character type")

// PasswordOptions selects the character classes of a generated password.
type PasswordOptions struct {
	Length         int
	Upper          bool
	Lower          bool
	Digits         bool
	Symbols        bool
	ExcludeSimilar bool
}

// Charset returns the characters a password may be drawn from.
func (o PasswordOptions) Charset() string {
	var b strings.Builder
	for _, c := range []struct {
		on  bool
		set string
	}{{o.Upper, upperChars}, {o.Lower, lowerChars}, {o.Digits, digitChars}, {o.Symbols, symbolChars}} {
		if c.on {
			b.WriteString(c.set)
		}
	}
	set := b.String()
	if o.ExcludeSimilar {
		set = strings.Map(func(r rune) rune {
			if strings.ContainsRune(similarChars, r) {
				return -1
			}
			return r
		}, set)
	}
	return set
}

// Password draws opts.Length characters uniformly from the charset using
// crypto/rand.
func Password(opts PasswordOptions) (string, error) {
	set := opts.Charset()
	if set == "" {
		return "", ErrEmptyCharset
	}
	n := opts.Length
	if n <= 0 {
		n = DefaultPasswordLength
	}
	size := big.NewInt(int64(len(set)))
	out := make([]byte, n)
	for i := range out {
		j, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("password: %w", err)
		}
		out[i] = set[j.Int64()]
	}
	return string(out), nil
}
