// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/hypertube/internal/app/system/requestlog"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// Response is the JSON body of every error reply. Errors maps a field
// name to its first validation message.
type Response struct {
	Msg    string            `json:"msg"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ErrorLogger logs handler failures and writes the client-facing JSON reply.
// Server errors are also reported to Sentry when a client is configured.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs err and replies 500 with userMsg. err never reaches
// the client.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Error(msg, e.fields(r, err)...)
	report(r, err)
	JSON(w, http.StatusInternalServerError, Response{Msg: userMsg})
}

// LogBadRequest logs err at warn level and replies 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Warn(msg, e.fields(r, err)...)
	JSON(w, http.StatusBadRequest, Response{Msg: userMsg})
}

// Validation replies 400 with userMsg and the per-field messages.
func (e *ErrorLogger) Validation(w http.ResponseWriter, r *http.Request, userMsg string, fields map[string]string) {
	e.log.Debug("validation failed",
		zap.String("request_id", requestlog.ID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Any("fields", fields))
	JSON(w, http.StatusBadRequest, Response{Msg: userMsg, Errors: fields})
}

// NotFound replies 404 with userMsg.
func (e *ErrorLogger) NotFound(w http.ResponseWriter, r *http.Request, userMsg string) {
	JSON(w, http.StatusNotFound, Response{Msg: userMsg})
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.Error(err),
		zap.String("request_id", requestlog.ID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
}

func report(r *http.Request, err error) {
	if err == nil || sentry.CurrentHub().Client() == nil {
		return
	}
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(r)
		if id := requestlog.ID(r.Context()); id != "" {
			scope.SetTag("request_id", id)
		}
		hub.CaptureException(err)
	})
}
