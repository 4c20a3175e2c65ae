// internal/app/features/users/watched.go
package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/hypertube/internal/app/features/errors"
	"github.com/dalemusser/hypertube/internal/app/services/history"
	"github.com/dalemusser/hypertube/internal/app/system/auth"
	"github.com/dalemusser/hypertube/internal/app/system/inputval"
	"github.com/dalemusser/hypertube/internal/app/system/timeouts"
)

const msgBadMovie = "Invalid movie data"

// watchedInput is the POST /api/users/watched body.
type watchedInput struct {
	IMDbCode string  `json:"imdb_code" validate:"required,imdbcode" label:"IMDb code"`
	Title    string  `json:"title" validate:"required,max=300" label:"Title"`
	Year     int     `json:"year" validate:"required,gte=1870,lte=2100" label:"Year"`
	Rating   float64 `json:"rating" validate:"gte=0,lte=10" label:"Rating"`
	Poster   string  `json:"poster" validate:"omitempty,httpurl,max=2048" label:"Poster"`
}

// HandleWatched handles POST /api/users/watched. Recording a movie twice
// keeps a single record and still succeeds.
func (h *Handler) HandleWatched(w http.ResponseWriter, r *http.Request) {
	cu, _ := auth.CurrentUser(r)

	var in watchedInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode watched body failed", err, msgBadMovie)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Validation(w, r, msgBadMovie, res.FieldMap())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.history.Record(ctx, cu.ID, history.Movie{
		IMDbCode: in.IMDbCode,
		Title:    in.Title,
		Year:     in.Year,
		Rating:   in.Rating,
		Poster:   in.Poster,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "record watched failed", err, "Server error")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Success"))
}

// ServeWatched handles GET /api/users/watched/{id}: the five most recent
// records, newest first. A missing id or "undefined" means the caller.
func (h *Handler) ServeWatched(w http.ResponseWriter, r *http.Request) {
	cu, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.history.Recent(ctx, targetID(r, cu))
	if errors.Is(err, history.ErrUserNotFound) {
		h.ErrLog.NotFound(w, r, "User not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list watched failed", err, "Server error")
		return
	}
	uierrors.JSON(w, http.StatusOK, list)
}
