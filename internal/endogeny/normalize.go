package endogeny

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	honorificRe = regexp.MustCompile(`(?i)\b(dr|prof|professor|mr|ms|mrs)\.?\b`)
	nonAlnumRe  = regexp.MustCompile(`[^a-z0-9\s]`)
	spacesRe    = regexp.MustCompile(`\s+`)
)

// foldDiacritics decomposes to NFKD and drops combining marks, so "é" and
// "e" compare equal.
var foldDiacritics = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// NormalizeName canonicalizes a person name for comparison: diacritics and
// non-ASCII dropped, lower-cased, honorific titles removed, punctuation
// stripped, whitespace collapsed. Idempotent.
func NormalizeName(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}
	var ascii strings.Builder
	for _, r := range folded {
		if r < 128 {
			ascii.WriteRune(r)
		}
	}
	text := strings.ToLower(ascii.String())
	text = honorificRe.ReplaceAllString(text, " ")
	text = nonAlnumRe.ReplaceAllString(text, " ")
	text = spacesRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// InitialsFamilyKey builds the "initials|family" lookup key from an already
// normalized name: first letters of every word but the last, a pipe, then
// the last word. Empty input yields an empty key.
func InitialsFamilyKey(normalized string) string {
	parts := strings.Fields(normalized)
	if len(parts) == 0 {
		return ""
	}
	family := parts[len(parts)-1]
	var initials strings.Builder
	for _, part := range parts[:len(parts)-1] {
		initials.WriteByte(part[0])
	}
	return initials.String() + "|" + family
}
