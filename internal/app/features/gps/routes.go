// internal/app/features/gps/routes.go
package gps

import (
	"github.com/go-chi/chi/v5"
	"github.com/vibesslabs/vibess-server/internal/app/system/auth"
)

// Routes returns the subrouter for the GP feature, mounted under
// /api/gps. Everything requires a signed-in user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/categories", h.ServeCategories)

	r.Get("/{id}", h.ServeView)
	r.Post("/{id}/join", h.HandleJoin)
	r.Post("/{id}/leave", h.HandleLeave)
	r.Post("/{id}/messages", h.HandlePostMessage)
	r.Get("/{id}/messages", h.HandleListMessages)
	r.Post("/{id}/votes", h.HandleVote)
	r.Post("/{id}/report", h.HandleReport)
	r.Post("/{id}/status", h.HandleSetStatus)

	return r
}
