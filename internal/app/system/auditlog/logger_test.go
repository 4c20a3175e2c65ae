package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/hypertube/internal/app/store/audit"
	"github.com/dalemusser/hypertube/internal/app/system/auditlog"
	"github.com/dalemusser/hypertube/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/api/users/update", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.ProfileUpdated(ctx, req, primitive.NewObjectID(), []string{"email"})
	logger.LoggedOut(ctx, req, primitive.NewObjectID().Hex())
}

func TestValidDest(t *testing.T) {
	for _, s := range []string{"all", "db", "log", "off"} {
		if !auditlog.ValidDest(s) {
			t.Errorf("ValidDest(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "ALL", "file"} {
		if auditlog.ValidDest(s) {
			t.Errorf("ValidDest(%q) = true, want false", s)
		}
	}
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Account: "off", Auth: "off"})

	req := httptest.NewRequest("POST", "/api/users/update", nil)
	logger.PasswordChanged(ctx, req, userID)

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_Log_ConfigLogOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	core, logs := observer.New(zap.InfoLevel)
	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.New(core), auditlog.Config{Account: "log"})

	req := httptest.NewRequest("POST", "/api/users/image", nil)
	logger.ProfileImageChanged(ctx, req, userID, "IMAGE-1.png")

	if logs.FilterMessage("audit event").Len() != 1 {
		t.Errorf("expected 1 zap audit entry, got %d", logs.FilterMessage("audit event").Len())
	}
	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no stored events, got %d", len(events))
	}
}

func TestLogger_ProfileUpdated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Account: "db"})

	req := httptest.NewRequest("POST", "/api/users/update", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("User-Agent", "TestBrowser/1.0")

	logger.ProfileUpdated(ctx, req, userID, []string{"username", "email"})

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.EventType != audit.EventProfileUpdated {
		t.Errorf("EventType: got %q, want %q", event.EventType, audit.EventProfileUpdated)
	}
	if event.IP != "192.168.1.1" {
		t.Errorf("IP: got %q, want %q", event.IP, "192.168.1.1")
	}
	if event.Details["fields_changed"] != "username,email" {
		t.Errorf("fields_changed: got %q", event.Details["fields_changed"])
	}
}

func TestLogger_UpdateRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Account: "all"})

	req := httptest.NewRequest("POST", "/api/users/update", nil)
	logger.UpdateRejected(ctx, req, userID, "invalid old password")

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Success {
		t.Error("expected Success to be false")
	}
	if events[0].FailureReason != "invalid old password" {
		t.Errorf("FailureReason: got %q", events[0].FailureReason)
	}
}

func TestLogger_LoggedOut(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	logger.LoggedOut(ctx, req, userID.Hex())

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventLogout {
		t.Fatalf("expected one logout event, got %+v", events)
	}
	if events[0].Category != audit.CategoryAuth {
		t.Errorf("Category: got %q, want %q", events[0].Category, audit.CategoryAuth)
	}
}
