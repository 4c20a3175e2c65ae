package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/hypertube/internal/app/store/audit"
	"github.com/dalemusser/hypertube/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	event := audit.Event{
		Category:  audit.CategoryAccount,
		EventType: audit.EventProfileUpdated,
		UserID:    &userID,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	}

	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestStore_GetByUser_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	types := []string{audit.EventProfileUpdated, audit.EventPasswordChanged, audit.EventLogout}
	for i, et := range types {
		if err := store.Log(ctx, audit.Event{
			Category:  audit.CategoryAccount,
			EventType: et,
			UserID:    &userID,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.GetByUser(ctx, userID, 2)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != audit.EventLogout || events[1].EventType != audit.EventPasswordChanged {
		t.Errorf("unexpected order: %s, %s", events[0].EventType, events[1].EventType)
	}
}

func TestStore_CountByType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		_ = store.Log(ctx, audit.Event{
			Category:  audit.CategoryAccount,
			EventType: audit.EventProfileUpdateRejected,
			UserID:    &userID,
			Timestamp: now.Add(-time.Duration(i) * time.Hour),
		})
	}

	n, err := store.CountByType(ctx, userID, audit.EventProfileUpdateRejected, now.Add(-90*time.Minute))
	if err != nil {
		t.Fatalf("CountByType failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 events in window, got %d", n)
	}
}
