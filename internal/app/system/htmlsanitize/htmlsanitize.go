// Package htmlsanitize cleans user and catalogue text with bluemonday.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// PlainText strips every tag and returns unescaped text, trimmed.
// Used for profile fields such as first and last name.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// Sanitize keeps safe formatting markup and removes scripts, event handlers,
// and dangerous URLs. Used for movie summaries served by the library.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugcPolicy.Sanitize(s)
}
