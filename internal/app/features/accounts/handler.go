// internal/app/features/accounts/handler.go
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	loginstore "github.com/vibesslabs/vibess-server/internal/app/store/logins"
	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"github.com/vibesslabs/vibess-server/internal/app/system/apiresp"
	"github.com/vibesslabs/vibess-server/internal/app/system/auth"
	"github.com/vibesslabs/vibess-server/internal/app/system/inputval"
	"github.com/vibesslabs/vibess-server/internal/app/system/limits"
	"github.com/vibesslabs/vibess-server/internal/app/system/normalize"
	"github.com/vibesslabs/vibess-server/internal/app/system/ratelimit"
	"github.com/vibesslabs/vibess-server/internal/app/system/status"
	"github.com/vibesslabs/vibess-server/internal/app/system/timeouts"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler serves signup, login, and logout.
type Handler struct {
	Users   *userstore.Store
	Logins  *loginstore.Store
	Limiter *ratelimit.LoginLimiter
	Log     *zap.Logger
}

func NewHandler(users *userstore.Store, logins *loginstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Users:   users,
		Logins:  logins,
		Limiter: ratelimit.NewLoginLimiter(),
		Log:     logger,
	}
}

type signupInput struct {
	Email       string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password    string `json:"password" validate:"required,min=8,max=128" label:"Password"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=50" label:"Display name"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// userPayload is what we return about the signed-in account.
type userPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func toPayload(u models.User) userPayload {
	return userPayload{
		ID:          u.ID.Hex(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}

// HandleSignup handles POST /api/auth/signup.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in signupInput
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apiresp.BadRequest(w, "Invalid JSON body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("signup: bcrypt failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Email:        normalize.Email(in.Email),
		PasswordHash: string(hash),
		DisplayName:  normalize.Name(in.DisplayName),
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			apiresp.Conflict(w, "email_taken", "An account with this email already exists.")
			return
		}
		h.Log.Error("signup: create failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	if err := auth.SignIn(w, r, auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.DisplayName,
		Email: u.Email,
		Role:  u.Role,
	}); err != nil {
		h.Log.Error("signup: session write failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	// Audit trail; failure does not block the signup.
	if err := h.Logins.CreateFrom(ctx, r, u.ID, "signup"); err != nil {
		h.Log.Warn("signup: login record failed", zap.Error(err))
	}

	apiresp.JSON(w, http.StatusCreated, toPayload(u))
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apiresp.BadRequest(w, "Invalid JSON body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}

	if allowed, reason := h.Limiter.Check(r, in.Email); !allowed {
		apiresp.Error(w, http.StatusTooManyRequests, "rate_limited", reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apiresp.Unauthorized(w, "Invalid email or password.")
			return
		}
		h.Log.Error("login: lookup failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		apiresp.Unauthorized(w, "Invalid email or password.")
		return
	}
	if u.Status == status.UserDisabled {
		apiresp.Forbidden(w, "account_disabled", "This account has been disabled.")
		return
	}

	if err := auth.SignIn(w, r, auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.DisplayName,
		Email: u.Email,
		Role:  u.Role,
	}); err != nil {
		h.Log.Error("login: session write failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}
	h.Limiter.ResetEmail(in.Email)

	if err := h.Logins.CreateFrom(ctx, r, u.ID, "password"); err != nil {
		h.Log.Warn("login: login record failed", zap.Error(err))
	}

	apiresp.JSON(w, http.StatusOK, toPayload(u))
}

// HandleLogout handles POST /api/auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := auth.SignOut(w, r); err != nil {
		h.Log.Warn("logout: session clear failed", zap.Error(err))
	}
	apiresp.JSON(w, http.StatusOK, map[string]any{"signed_out": true})
}
