// Package sanitize cleans user-provided free text before storage.
package sanitize

import (
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

var entities = [][2]string{
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&amp;", "&"},
	{"&quot;", "\""},
	{"&#39;", "'"},
}

// StripHTML removes markup from a string so it is safe for text-only
// display. Entities are decoded and the result stripped again to catch
// encoded tags.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	for _, e := range entities {
		result = strings.ReplaceAll(result, e[0], e[1])
	}
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes a free-text field such as a note or a funnel answer.
func Text(s string) string {
	return StripHTML(s)
}

// TextPtr applies Text to optional fields, preserving nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}
