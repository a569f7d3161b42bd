// internal/app/features/profile/handler.go
package profile

import (
	loginstore "github.com/vibesslabs/vibess-server/internal/app/store/logins"
	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"go.uber.org/zap"
)

// Handler owns the signed-in account's profile endpoints.
type Handler struct {
	Users  *userstore.Store
	Logins *loginstore.Store
	Log    *zap.Logger
}

func NewHandler(users *userstore.Store, logins *loginstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Logins: logins, Log: logger}
}
