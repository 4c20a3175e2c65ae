// internal/app/features/library/handler.go
package library

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/hypertube/internal/app/features/errors"
	moviestore "github.com/dalemusser/hypertube/internal/app/store/movies"
	"github.com/dalemusser/hypertube/internal/app/system/cache"
	"github.com/dalemusser/hypertube/internal/app/system/htmlsanitize"
	"github.com/dalemusser/hypertube/internal/app/system/inputval"
	"github.com/dalemusser/hypertube/internal/app/system/normalize"
	"github.com/dalemusser/hypertube/internal/app/system/timeouts"
	"github.com/dalemusser/hypertube/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves read-only lookups into the movie library.
type Handler struct {
	DB     *mongo.Database
	Cache  *cache.Cache
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	movies *moviestore.Store
}

// NewHandler constructs a library Handler. c may be a disabled cache.
func NewHandler(db *mongo.Database, c *cache.Cache, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Cache:  c,
		Log:    logger,
		ErrLog: errLog,
		movies: moviestore.New(db),
	}
}

// ServeByIMDbCode handles GET /api/library/movies/imdb_code/{code}.
// The reply is an array holding zero or one movie.
func (h *Handler) ServeByIMDbCode(w http.ResponseWriter, r *http.Request) {
	code := normalize.IMDbCode(chi.URLParam(r, "code"))
	if !inputval.IsValidIMDbCode(code) {
		uierrors.JSON(w, http.StatusBadRequest, uierrors.Response{Msg: "Invalid IMDb code"})
		return
	}
	h.serveCached(w, r, "imdb:"+code, func(ctx context.Context) ([]models.Movie, error) {
		return h.movies.ByIMDbCode(ctx, code)
	})
}

// ServeByGenre handles GET /api/library/movies/genre/{genre}: the best
// rated movies of that genre.
func (h *Handler) ServeByGenre(w http.ResponseWriter, r *http.Request) {
	genre := normalize.PathParam(chi.URLParam(r, "genre"))
	if genre == "" {
		uierrors.JSON(w, http.StatusBadRequest, uierrors.Response{Msg: "Invalid genre"})
		return
	}
	h.serveCached(w, r, "genre:"+strings.ToLower(genre), func(ctx context.Context) ([]models.Movie, error) {
		return h.movies.ByGenre(ctx, genre)
	})
}

// serveCached answers from the cache when possible, otherwise from load.
// Cache errors are logged and never fail the request.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, load func(context.Context) ([]models.Movie, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var list []models.Movie
	hit, err := h.Cache.GetJSON(ctx, key, &list)
	if err != nil {
		h.Log.Warn("library cache read failed", zap.String("key", key), zap.Error(err))
	}
	if !hit {
		if list, err = load(ctx); err != nil {
			h.ErrLog.LogServerError(w, r, "library lookup failed", err, "Server error")
			return
		}
		for i := range list {
			list[i].Summary = htmlsanitize.Sanitize(list[i].Summary)
		}
		if err := h.Cache.SetJSON(ctx, key, list); err != nil {
			h.Log.Warn("library cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	if list == nil {
		list = []models.Movie{}
	}
	uierrors.JSON(w, http.StatusOK, list)
}
