// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/hypertube/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the user endpoints. Every route requires a credential.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/me", h.ServeMe)
		pr.Get("/info", h.ServeInfo)
		pr.Get("/info/{id}", h.ServeInfo)
		pr.Group(func(wr chi.Router) {
			if h.WriteLimiter != nil {
				wr.Use(h.WriteLimiter.Middleware(limitKey, h.onLimited))
			}
			wr.Post("/update", h.HandleUpdate)
			wr.Post("/image", h.HandleImage)
		})
		pr.Post("/watched", h.HandleWatched)
		pr.Get("/watched", h.ServeWatched)
		pr.Get("/watched/{id}", h.ServeWatched)
	})
	return r
}
