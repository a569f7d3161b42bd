// internal/app/features/profile/routes.go
package profile

import (
	"github.com/go-chi/chi/v5"
	"github.com/vibesslabs/vibess-server/internal/app/system/auth"
)

// Routes returns the subrouter for the account profile, mounted under
// /api/profile.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeProfile)
	r.Patch("/", h.HandleUpdate)
	r.Post("/password", h.HandleChangePassword)
	return r
}
