// internal/app/features/users/handler.go
package users

import (
	"net/http"

	uierrors "github.com/dalemusser/hypertube/internal/app/features/errors"
	"github.com/dalemusser/hypertube/internal/app/services/history"
	"github.com/dalemusser/hypertube/internal/app/services/profile"
	userstore "github.com/dalemusser/hypertube/internal/app/store/users"
	watchedstore "github.com/dalemusser/hypertube/internal/app/store/watched"
	"github.com/dalemusser/hypertube/internal/app/system/auditlog"
	"github.com/dalemusser/hypertube/internal/app/system/auth"
	"github.com/dalemusser/hypertube/internal/app/system/imagefile"
	"github.com/dalemusser/hypertube/internal/app/system/normalize"
	"github.com/dalemusser/hypertube/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// selfSentinel is sent by the client in place of an id to mean "me".
const selfSentinel = "undefined"

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// Handler owns the /api/users handlers.
type Handler struct {
	DB     *mongo.Database
	Images *imagefile.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Audit  *auditlog.Logger

	// WriteLimiter, when set, throttles POST /update and /image per user.
	WriteLimiter *ratelimit.Limiter

	profiles *profile.Service
	history  *history.Service
}

// NewHandler constructs a Handler bound to the given Mongo database, image
// store and logger. auditLog may be nil.
func NewHandler(db *mongo.Database, images *imagefile.Store, auditLog *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Images:   images,
		Log:      logger,
		ErrLog:   errLog,
		Audit:    auditLog,
		profiles: profile.New(userstore.New(db)),
		history:  history.New(watchedstore.New(db)),
	}
}

// targetID returns the {id} path parameter, or the caller's id when it is
// absent or the self sentinel.
func targetID(r *http.Request, self *auth.SessionUser) string {
	id := normalize.PathParam(chi.URLParam(r, "id"))
	if id == "" || id == selfSentinel {
		return self.ID
	}
	return id
}

// limitKey keys the write limiter by user, falling back to client IP.
func limitKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID
	}
	return ratelimit.ClientIP(r)
}

func (h *Handler) onLimited(r *http.Request, key string) {
	h.Log.Warn("write rate limit exceeded", zap.String("key", key), zap.String("path", r.URL.Path))
	h.Audit.RateLimited(r.Context(), r, key)
}
