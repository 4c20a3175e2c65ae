// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/hypertube/internal/app/store/audit"
	"github.com/dalemusser/hypertube/internal/app/system/ratelimit"
	"github.com/dalemusser/hypertube/internal/app/system/requestlog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations accepted by Config fields.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Account controls profile, password and image events.
	Account string
	// Auth controls logout and rate limit events.
	Auth string
}

// ValidDest reports whether s is an accepted destination value.
func ValidDest(s string) bool {
	switch s {
	case DestAll, DestDB, DestLog, DestOff:
		return true
	}
	return false
}

// Logger records account security events to MongoDB and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the configured destination for
// its category. A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAccount:
		setting = l.config.Account
	case audit.CategoryAuth:
		setting = l.config.Auth
	default:
		setting = DestAll
	}
	if setting == "" {
		setting = DestAll
	}
	if setting == DestOff {
		return
	}

	if setting == DestAll || setting == DestLog {
		l.logToZap(event)
	}

	if (setting == DestAll || setting == DestDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func fromRequest(r *http.Request, category, eventType string, userID *primitive.ObjectID) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		UserID:    userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		RequestID: requestlog.ID(r.Context()),
		Success:   true,
	}
}

// --- Account Events ---

// ProfileUpdated logs a successful profile update. fields lists the
// profile fields whose values changed.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, userID primitive.ObjectID, fields []string) {
	e := fromRequest(r, audit.CategoryAccount, audit.EventProfileUpdated, &userID)
	if len(fields) > 0 {
		e.Details = map[string]string{"fields_changed": strings.Join(fields, ",")}
	}
	l.Log(ctx, e)
}

// PasswordChanged logs a password rotation made through a profile update.
func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, fromRequest(r, audit.CategoryAccount, audit.EventPasswordChanged, &userID))
}

// UpdateRejected logs a refused profile update.
func (l *Logger) UpdateRejected(ctx context.Context, r *http.Request, userID primitive.ObjectID, reason string) {
	e := fromRequest(r, audit.CategoryAccount, audit.EventProfileUpdateRejected, &userID)
	e.Success = false
	e.FailureReason = reason
	l.Log(ctx, e)
}

// ProfileImageChanged logs a new profile image.
func (l *Logger) ProfileImageChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID, filename string) {
	e := fromRequest(r, audit.CategoryAccount, audit.EventProfileImageChanged, &userID)
	e.Details = map[string]string{"filename": filename}
	l.Log(ctx, e)
}

// --- Auth Events ---

// LoggedOut logs a logout. userIDStr may be empty or malformed, in which
// case the event is recorded without a user reference.
func (l *Logger) LoggedOut(ctx context.Context, r *http.Request, userIDStr string) {
	var uid *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		uid = &oid
	}
	l.Log(ctx, fromRequest(r, audit.CategoryAuth, audit.EventLogout, uid))
}

// RateLimited logs a request refused by a rate limiter.
func (l *Logger) RateLimited(ctx context.Context, r *http.Request, key string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventRateLimited, nil)
	if oid, err := primitive.ObjectIDFromHex(key); err == nil {
		e.UserID = &oid
	}
	e.Success = false
	e.FailureReason = "rate limit exceeded"
	e.Details = map[string]string{"path": r.URL.Path}
	l.Log(ctx, e)
}
