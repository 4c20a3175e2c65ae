// internal/app/features/users/info.go
package users

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/hypertube/internal/app/features/errors"
	"github.com/dalemusser/hypertube/internal/app/services/profile"
	"github.com/dalemusser/hypertube/internal/app/system/auth"
	"github.com/dalemusser/hypertube/internal/app/system/timeouts"
	"github.com/dalemusser/hypertube/internal/domain/models"
)

type userResponse struct {
	User *models.User `json:"user"`
}

// ServeMe handles GET /api/users/me.
//
//	200 { "user": { ... } }
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	cu, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.profiles.Get(ctx, cu.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load current user failed", err, "Server Error")
		return
	}
	uierrors.JSON(w, http.StatusOK, userResponse{User: u})
}

// ServeInfo handles GET /api/users/info/{id}. A missing id or "undefined"
// means the caller.
func (h *Handler) ServeInfo(w http.ResponseWriter, r *http.Request) {
	cu, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.profiles.Get(ctx, targetID(r, cu))
	if errors.Is(err, profile.ErrUserNotFound) {
		h.ErrLog.NotFound(w, r, "User not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user failed", err, "Server Error")
		return
	}
	uierrors.JSON(w, http.StatusOK, userResponse{User: u})
}
