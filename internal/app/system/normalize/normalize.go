// Package normalize canonicalizes user-supplied values before they are
// compared or stored.
package normalize

import (
	"strings"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses internal whitespace. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Username trims surrounding whitespace. Case is preserved.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// IMDbCode trims and lowercases an IMDb title code ("TT0111161" -> "tt0111161").
func IMDbCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Strategy trims and lowercases an account strategy.
func Strategy(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PathParam trims a URL path parameter.
func PathParam(s string) string {
	return strings.TrimSpace(s)
}
