package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/dalemusser/hypertube/internal/app/system/auth"
	"github.com/dalemusser/hypertube/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID       string
	Username string
	Strategy string
}

// LocalUser returns a TestUser with a fresh ID and the local strategy.
func LocalUser() TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Username: "neo",
		Strategy: models.StrategyLocal,
	}
}

// UserFrom builds a TestUser for a stored user.
func UserFrom(u models.User) TestUser {
	return TestUser{ID: u.ID.Hex(), Username: u.Username, Strategy: u.Strategy}
}

// WithUser adds a user to the request context, bypassing credentials.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:       user.ID,
		Username: user.Username,
		Strategy: user.Strategy,
	})
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}
