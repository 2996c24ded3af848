// Package document defines the normalized representation of a fetched page
// and the HTML decoding/parsing that produces it.
package document

import "strings"

// Document is the normalized form of one fetched page. It is immutable once
// produced; consumers read it, they never mutate it.
type Document struct {
	URL         string              `json:"url"`
	StatusCode  int                 `json:"status_code"`
	ContentType string              `json:"content_type"`
	Title       string              `json:"title"`
	Text        string              `json:"text"`
	Links       []string            `json:"links"`
	Meta        map[string][]string `json:"meta"`
	RawHTML     string              `json:"-"`
}

// TextLength returns the length of the trimmed visible text.
func (d Document) TextLength() int {
	return len(strings.TrimSpace(d.Text))
}

// NonEmptyLines returns the visible text split into trimmed, non-empty lines.
func (d Document) NonEmptyLines() []string {
	var lines []string
	for _, line := range strings.Split(d.Text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// HasMetaKeyPrefix reports whether any metadata key starts with prefix.
// Citation-style keys ("citation_title", ...) signal a machine-readable page.
func (d Document) HasMetaKeyPrefix(prefix string) bool {
	for key := range d.Meta {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// MetaValues flattens the values of the given metadata keys, preserving
// first-seen order and dropping duplicates.
func (d Document) MetaValues(keys ...string) []string {
	var values []string
	seen := make(map[string]struct{})
	for _, key := range keys {
		for _, value := range d.Meta[strings.ToLower(key)] {
			if value == "" {
				continue
			}
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
			values = append(values, value)
		}
	}
	return values
}
