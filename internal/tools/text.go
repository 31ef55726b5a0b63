package tools

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ettle/strcase"
)

// Transform is a named text-to-text operation.
type Transform struct {
	Name  string
	Usage string
	Apply func(string) string
}

// Transforms lists the case and line operations in menu order.
var Transforms = []Transform{
	{"upper", "UPPERCASE", strings.ToUpper},
	{"lower", "lowercase", strings.ToLower},
	{"title", "Title Case", TitleCase},
	{"camel", "camelCase", strcase.ToCamel},
	{"snake", "snake_case", strcase.ToSnake},
	{"kebab", "kebab-case", strcase.ToKebab},
	{"sort", "sort lines A-Z", SortLines},
	{"sort-desc", "sort lines Z-A", SortLinesDesc},
	{"reverse", "reverse line order", ReverseLines},
	{"trim", "trim every line", TrimLines},
	{"no-empty", "remove blank lines", RemoveEmptyLines},
	{"dedupe", "remove duplicate lines, keeping the first", DedupeLines},
}

// LookupTransform finds a transform by name.
func LookupTransform(name string) (Transform, error) {
	for _, t := range Transforms {
		if t.Name == name {
			return t, nil
		}
	}
	names := make([]string, len(Transforms))
	for i, t := range Transforms {
		names[i] = t.Name
	}
	return Transform{}, fmt.Errorf("unknown transform %q (want %s)", name, strings.Join(names, "|"))
}

var titleWords = regexp.MustCompile(`\w\S*`)

// TitleCase upper-cases the first letter of every word and lower-cases the
// rest of it.
func TitleCase(s string) string {
	return titleWords.ReplaceAllStringFunc(s, func(w string) string {
		r, n := utf8.DecodeRuneInString(w)
		return string(unicode.ToUpper(r)) + strings.ToLower(w[n:])
	})
}

func SortLines(s string) string {
	lines := strings.Split(s, "\n")
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func SortLinesDesc(s string) string {
	lines := strings.Split(s, "\n")
	sort.Sort(sort.Reverse(sort.StringSlice(lines)))
	return strings.Join(lines, "\n")
}

func ReverseLines(s string) string {
	lines := strings.Split(s, "\n")
	slices.Reverse(lines)
	return strings.Join(lines, "\n")
}

func TrimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}

func RemoveEmptyLines(s string) string {
	lines := strings.Split(s, "\n")
	return strings.Join(slices.DeleteFunc(lines, func(l string) bool { return strings.TrimSpace(l) == "" }), "\n")
}

func DedupeLines(s string) string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
