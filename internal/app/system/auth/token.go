package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for malformed, expired, or mis-signed tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenVerifier validates HS256 bearer tokens whose subject is the user ID.
// Tokens are read from "Authorization: Bearer <t>" or from a legacy header
// (x-auth-token by default).
type TokenVerifier struct {
	secret       []byte
	legacyHeader string
	ttl          time.Duration
}

// NewTokenVerifier returns a verifier for tokens signed with secret.
func NewTokenVerifier(secret, legacyHeader string, ttl time.Duration) (*TokenVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}
	return &TokenVerifier{secret: []byte(secret), legacyHeader: legacyHeader, ttl: ttl}, nil
}

// Issue signs a token for userID. The API never issues tokens itself; the
// sign-in service does, and tests use this to build credentials.
func (v *TokenVerifier) Issue(userID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify checks the signature and expiry and returns the subject.
func (v *TokenVerifier) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// FromRequest extracts the raw token, if present.
func (v *TokenVerifier) FromRequest(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.Fields(h)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1], true
		}
		return "", false
	}
	if v.legacyHeader != "" {
		if t := strings.TrimSpace(r.Header.Get(v.legacyHeader)); t != "" {
			return t, true
		}
	}
	return "", false
}
