// internal/app/features/library/routes.go
package library

import (
	"github.com/dalemusser/hypertube/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/movies/imdb_code/{code}", h.ServeByIMDbCode)
		pr.Get("/movies/genre/{genre}", h.ServeByGenre)
	})
	return r
}
