// internal/app/features/waitlist/routes.go
package waitlist

import (
	"github.com/go-chi/chi/v5"
	"github.com/vibesslabs/vibess-server/internal/app/system/auth"
)

// Routes returns the subrouter for waitlist membership, mounted under
// /api/waitlist.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Post("/{category}", h.HandleJoin)
	r.Delete("/{category}", h.HandleLeave)
	return r
}
