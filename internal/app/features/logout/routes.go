// internal/app/features/logout/routes.go
package logout

import (
	"github.com/dalemusser/hypertube/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		// Only signed-in users may log out.
		pr.Use(sm.RequireSignedIn)
		pr.Post("/logout", h.ServeLogout)
	})

	return r
}
