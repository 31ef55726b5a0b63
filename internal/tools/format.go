// Package tools holds the text utilities the multitool shell offers on
// clipboard payloads: JSON/XML formatting, JWT decoding, Base64 and URL
// encoding, hashing, UUID and password generation, and case and line
// transforms. Every function is pure text in, text out; the CLI decides where
// the text comes from.
package tools

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/go-xmlfmt/xmlfmt"
)

// ErrInvalidXML wraps every XML well-formedness failure.
var ErrInvalidXML = errors.New("invalid XML")

// FormatJSON re-indents a JSON document with two spaces.
func FormatJSON(in string) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(strings.TrimSpace(in)), "", "  "); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	return buf.String(), nil
}

// MinifyJSON removes all insignificant whitespace from a JSON document.
func MinifyJSON(in string) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(strings.TrimSpace(in))); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	return buf.String(), nil
}

var xmlGaps = regexp.MustCompile(`>[\r\n ]+<`)

// FormatXML indents a well-formed XML document with two spaces per level.
// Leaf elements keep their text on one line.
func FormatXML(in string) (string, error) {
	if err := checkXML(in); err != nil {
		return "", err
	}
	out := xmlfmt.FormatXML(strings.TrimSpace(in), "", "  ")
	out = strings.ReplaceAll(out, "\r\n", "\n")
	return strings.TrimLeft(out, "\n"), nil
}

// MinifyXML drops the line breaks and spaces between tags.
func MinifyXML(in string) (string, error) {
	if err := checkXML(in); err != nil {
		return "", err
	}
	return strings.TrimSpace(xmlGaps.ReplaceAllString(in, "><")), nil
}

func checkXML(in string) error {
	d := xml.NewDecoder(strings.NewReader(in))
	roots, depth := 0, 0
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}
		switch tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	switch {
	case roots == 0:
		return fmt.Errorf("%w: no root element", ErrInvalidXML)
	case roots > 1:
		return fmt.Errorf("%w: more than one root element", ErrInvalidXML)
	}
	return nil
}
