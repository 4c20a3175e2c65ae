package logout_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/hypertube/internal/app/features/logout"
	"github.com/dalemusser/hypertube/internal/app/store/audit"
	"github.com/dalemusser/hypertube/internal/app/system/auditlog"
	"github.com/dalemusser/hypertube/internal/app/system/auth"
	"github.com/dalemusser/hypertube/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

func TestServeLogout_ClearsSessionCookie(t *testing.T) {
	handler := logout.NewHandler(newTestSessionManager(t), nil, zap.NewNop())

	req := testutil.NewAuthenticatedRequest("POST", "/api/auth/logout", testutil.LocalUser())
	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["msg"] == "" {
		t.Error("expected a msg in the response")
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
			if c.MaxAge != -1 {
				t.Errorf("cookie MaxAge: got %d, want -1 (delete)", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be set for deletion")
	}
}

func TestLogout_SessionNoLongerAuthenticates(t *testing.T) {
	sm := newTestSessionManager(t)
	router := logout.Routes(logout.NewHandler(sm, nil, zap.NewNop()), sm)

	// Sign in to obtain a session cookie.
	signIn := httptest.NewRecorder()
	if err := sm.SignIn(signIn, httptest.NewRequest("POST", "/login", nil), auth.SessionUser{
		ID:       "65f000000000000000000001",
		Username: "neo",
		Strategy: "local",
	}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := signIn.Result().Cookies()

	// Log out through the real middleware chain.
	req := httptest.NewRequest("POST", "/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	sm.LoadSessionUser(router).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// Without a cookie the route is closed.
	rec = httptest.NewRecorder()
	sm.LoadSessionUser(router).ServeHTTP(rec, httptest.NewRequest("POST", "/logout", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestServeLogout_Audited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := testutil.LocalUser()
	handler := logout.NewHandler(newTestSessionManager(t),
		auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"}), zap.NewNop())

	rec := httptest.NewRecorder()
	handler.ServeLogout(rec, testutil.NewAuthenticatedRequest("POST", "/api/auth/logout", user))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		t.Fatalf("bad test user id: %v", err)
	}
	events, err := store.GetByUser(ctx, oid, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventLogout {
		t.Errorf("expected one logout event, got %+v", events)
	}
}
