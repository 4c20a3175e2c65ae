// internal/app/features/users/update.go
package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/hypertube/internal/app/features/errors"
	"github.com/dalemusser/hypertube/internal/app/services/profile"
	"github.com/dalemusser/hypertube/internal/app/system/auth"
	"github.com/dalemusser/hypertube/internal/app/system/inputval"
	"github.com/dalemusser/hypertube/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const msgBadForm = "Please fill the form with correct informations"

// updateInput is the POST /api/users/update body.
type updateInput struct {
	FirstName   string `json:"first_name" validate:"required,max=50" label:"First name"`
	LastName    string `json:"last_name" validate:"required,max=50" label:"Last name"`
	Username    string `json:"username" validate:"required,alphanum,min=3,max=30" label:"Username"`
	Email       string `json:"email" validate:"required,email,max=254" label:"Email"`
	OldPassword string `json:"oldPassword" validate:"max=128" label:"Old password"`
	NewPassword string `json:"newPassword" validate:"omitempty,min=8,max=72" label:"New password"`
}

// HandleUpdate handles POST /api/users/update for the caller's own profile.
//
//	200 { "msg": "Updated Successfuly" }
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	cu, _ := auth.CurrentUser(r)

	var in updateInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode update body failed", err, msgBadForm)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Validation(w, r, msgBadForm, res.FieldMap())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	changes, err := h.profiles.Update(ctx, profile.UpdateInput{
		UserID:      cu.ID,
		Strategy:    cu.Strategy,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Username:    in.Username,
		Email:       in.Email,
		OldPassword: in.OldPassword,
		NewPassword: in.NewPassword,
	})

	var conflict *profile.ConflictError
	switch {
	case err == nil:
		h.Log.Info("profile updated", zap.String("user_id", cu.ID), zap.Strings("fields", changes.Fields))
		h.auditUpdate(r, cu.ID, changes)
		uierrors.JSON(w, http.StatusOK, uierrors.Response{Msg: "Updated Successfuly"})
	case errors.Is(err, profile.ErrUserNotFound):
		h.ErrLog.NotFound(w, r, "Invalid User")
	case errors.Is(err, profile.ErrPasswordTooLong):
		h.ErrLog.Validation(w, r, msgBadForm, map[string]string{
			"newPassword": "New password must be at most 72 bytes",
		})
	case errors.Is(err, profile.ErrInvalidOldPassword):
		if oid, perr := primitive.ObjectIDFromHex(cu.ID); perr == nil {
			h.Audit.UpdateRejected(r.Context(), r, oid, "invalid old password")
		}
		uierrors.JSON(w, http.StatusBadRequest, uierrors.Response{Msg: "Invalid Old Password"})
	case errors.As(err, &conflict):
		uierrors.JSON(w, http.StatusBadRequest, uierrors.Response{
			Msg:    "Choose another " + conflict.Field,
			Errors: map[string]string{conflict.Field: "Already exists"},
		})
	default:
		h.ErrLog.LogServerError(w, r, "update profile failed", err, "Server error")
	}
}

func (h *Handler) auditUpdate(r *http.Request, userID string, changes profile.Changes) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return
	}
	h.Audit.ProfileUpdated(r.Context(), r, oid, changes.Fields)
	if changes.Password {
		h.Audit.PasswordChanged(r.Context(), r, oid)
	}
}
