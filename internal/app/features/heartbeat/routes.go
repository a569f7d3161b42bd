// internal/app/features/heartbeat/routes.go
package heartbeat

import (
	"github.com/go-chi/chi/v5"
	"github.com/vibesslabs/vibess-server/internal/app/system/auth"
)

// Routes returns a subrouter for the heartbeat endpoint.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Post("/", h.ServeHeartbeat)
	return r
}
