// internal/app/features/users/image.go
package users

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	uierrors "github.com/dalemusser/hypertube/internal/app/features/errors"
	"github.com/dalemusser/hypertube/internal/app/services/profile"
	"github.com/dalemusser/hypertube/internal/app/system/auth"
	"github.com/dalemusser/hypertube/internal/app/system/imagefile"
	"github.com/dalemusser/hypertube/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errNoImagePart = errors.New("no profileImage file part")

const (
	imageField      = "profileImage"
	msgInvalidImage = "Invalid Profile Image"
	msgTooLarge     = "File too large"
	// multipartSlack covers multipart headers and boundaries around the file.
	multipartSlack = 64 << 10
)

// HandleImage handles POST /api/users/image with a single multipart file in
// the profileImage field.
//
//	200 "IMAGE-1700000000000.png"
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	cu, _ := auth.CurrentUser(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.Images.MaxBytes()+multipartSlack)
	mr, err := r.MultipartReader()
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse multipart failed", err, msgInvalidImage)
		return
	}

	// The file part is streamed straight into the image store; nothing is
	// spooled to the OS temp dir the way ParseMultipartForm would.
	part, err := nextImagePart(mr)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.ErrLog.LogBadRequest(w, r, "profile image body too large", err, msgTooLarge)
			return
		}
		h.ErrLog.LogBadRequest(w, r, "profile image missing", err, msgInvalidImage)
		return
	}
	defer part.Close()

	// Size is unknown until the part is read; Save enforces the limit.
	if err := h.Images.CheckConstraints(part.FileName(), part.Header.Get("Content-Type"), 0); err != nil {
		h.ErrLog.LogBadRequest(w, r, "profile image rejected", err, msgInvalidImage)
		return
	}

	stored, err := h.Images.Save(part, part.FileName())
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, imagefile.ErrUndecodable):
		h.ErrLog.LogBadRequest(w, r, "profile image undecodable", err, msgInvalidImage)
		return
	case errors.Is(err, imagefile.ErrTooLarge), errors.As(err, &tooBig):
		h.ErrLog.LogBadRequest(w, r, "profile image too large", err, msgTooLarge)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "store profile image failed", err, "Server error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.profiles.SetImage(ctx, cu.ID, stored.Name); err != nil {
		if rmErr := h.Images.Remove(stored.Name); rmErr != nil {
			h.Log.Warn("remove orphaned profile image", zap.String("file", stored.Name), zap.Error(rmErr))
		}
		if errors.Is(err, profile.ErrUserNotFound) {
			h.ErrLog.NotFound(w, r, "User not Found")
			return
		}
		h.ErrLog.LogServerError(w, r, "set profile image failed", err, "Server error")
		return
	}

	h.Log.Info("profile image stored",
		zap.String("user_id", cu.ID),
		zap.String("file", stored.Name),
		zap.Int("width", stored.Width),
		zap.Int("height", stored.Height))
	if oid, err := primitive.ObjectIDFromHex(cu.ID); err == nil {
		h.Audit.ProfileImageChanged(r.Context(), r, oid, stored.Name)
	}
	uierrors.JSON(w, http.StatusOK, stored.Name)
}

// nextImagePart skips to the profileImage file part. Other parts are
// discarded as they are read.
func nextImagePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return nil, errNoImagePart
		}
		if err != nil {
			return nil, err
		}
		if p.FormName() == imageField && p.FileName() != "" {
			return p, nil
		}
		_ = p.Close()
	}
}
