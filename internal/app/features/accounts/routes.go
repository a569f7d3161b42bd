// internal/app/features/accounts/routes.go
package accounts

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the auth endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.HandleSignup)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	return r
}
