package inputval

import (
	"net/url"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var imdbCodeRe = regexp.MustCompile(`^tt\d{7,8}$`)

// IsValidObjectID reports whether s (trimmed) is a 24-hex-character ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// IsValidHTTPURL reports whether s (trimmed) is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidIMDbCode reports whether s (trimmed, case-insensitive) looks like
// an IMDb title code: "tt" followed by 7 or 8 digits.
func IsValidIMDbCode(s string) bool {
	return imdbCodeRe.MatchString(strings.ToLower(strings.TrimSpace(s)))
}
