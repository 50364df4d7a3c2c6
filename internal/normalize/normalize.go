// Package normalize provides the canonical forms for note tags and search text.
// The same rules apply on the write path and when compiling tag filters, so a
// stored tag and a query for it always normalize identically.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// fullWidthASCII covers the full-width forms of the printable ASCII range (！ through ～).
//
//nolint:gochecknoglobals // Static range table
var fullWidthASCII = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0xFF01, Hi: 0xFF5E, Stride: 1}},
}

// Only full-width ASCII is narrowed. Full-width katakana and ideographic
// space are left alone.
func narrowASCII(s string) string {
	t := runes.If(runes.In(fullWidthASCII), width.Narrow, nil)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Tag returns the canonical form of a single tag: trimmed, full-width ASCII
// narrowed, and lowercased when the result is purely ASCII letters and digits.
// Mixed tags such as "Go言語" keep their case.
func Tag(raw string) string {
	s := narrowASCII(strings.TrimSpace(raw))
	if isASCIIAlnum(s) {
		return strings.ToLower(s)
	}
	return s
}

// Tags normalizes every entry, drops empties, and removes duplicates keeping
// the first occurrence.
func Tags(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		t := Tag(r)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma-separated query value into normalized tags.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return Tags(strings.Split(raw, ","))
}

// Length counts characters the way limits are expressed to users (code points).
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// HasFullWidthAlnum reports whether s contains full-width Latin letters or digits.
func HasFullWidthAlnum(s string) bool {
	for _, r := range s {
		switch {
		case r >= '０' && r <= '９', r >= 'Ａ' && r <= 'Ｚ', r >= 'ａ' && r <= 'ｚ':
			return true
		}
	}
	return false
}

func isASCIIAlnum(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
