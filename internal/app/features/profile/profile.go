// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"github.com/vibesslabs/vibess-server/internal/app/system/apiresp"
	"github.com/vibesslabs/vibess-server/internal/app/system/authz"
	"github.com/vibesslabs/vibess-server/internal/app/system/inputval"
	"github.com/vibesslabs/vibess-server/internal/app/system/limits"
	"github.com/vibesslabs/vibess-server/internal/app/system/normalize"
	"github.com/vibesslabs/vibess-server/internal/app/system/timeouts"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// timeNow is swapped in tests.
var timeNow = func() time.Time { return time.Now().UTC() }

// profileResponse is the account view: identity plus the group-creation
// ledger state the client renders (creations left today, cooldown, open
// waitlist entries).
type profileResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`

	CreationsToday  int        `json:"creations_today"`
	CooldownUntil   *time.Time `json:"cooldown_until,omitempty"`
	WaitlistedFor   []string   `json:"waitlisted_for"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	MemberSince     time.Time  `json:"member_since"`
	LocationUpdated *time.Time `json:"location_updated_at,omitempty"`
}

type updateInput struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=50" label:"Display name"`
}

type passwordInput struct {
	CurrentPassword string `json:"current_password" validate:"required" label:"Current password"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128" label:"New password"`
}

// ServeProfile handles GET /api/profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w, "Sign in required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apiresp.Unauthorized(w, "Account no longer exists.")
			return
		}
		h.Log.Error("profile: user load failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	now := timeNow()
	resp := profileResponse{
		ID:              u.ID.Hex(),
		Email:           u.Email,
		DisplayName:     u.DisplayName,
		Role:            u.Role,
		CreationsToday:  creationsToday(u.GPCreationHistory, now),
		WaitlistedFor:   []string{},
		MemberSince:     u.CreatedAt,
		LocationUpdated: u.LastLocationAt,
	}
	if u.GPCooldownUntil != nil && u.GPCooldownUntil.After(now) {
		resp.CooldownUntil = u.GPCooldownUntil
	}
	for _, e := range u.GPWaitlist {
		if !e.Notified {
			resp.WaitlistedFor = append(resp.WaitlistedFor, e.Category)
		}
	}

	if rec, err := h.Logins.LastLogin(ctx, userID); err != nil {
		h.Log.Warn("profile: last login lookup failed", zap.Error(err))
	} else if rec != nil {
		resp.LastLoginAt = &rec.CreatedAt
	}

	apiresp.JSON(w, http.StatusOK, resp)
}

// creationsToday counts ledger entries on the same UTC calendar day.
// The create endpoint applies the configured day timezone; this count is
// informational and uses UTC.
func creationsToday(history []models.GPCreationRecord, now time.Time) int {
	y, m, d := now.UTC().Date()
	n := 0
	for _, rec := range history {
		ry, rm, rd := rec.CreatedAt.UTC().Date()
		if ry == y && rm == m && rd == d {
			n++
		}
	}
	return n
}

// HandleUpdate handles PATCH /api/profile.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w, "Sign in required.")
		return
	}

	var in updateInput
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apiresp.BadRequest(w, "Invalid JSON body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	name := normalize.Name(in.DisplayName)
	if err := h.Users.UpdateDisplayName(ctx, userID, name); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apiresp.Unauthorized(w, "Account no longer exists.")
			return
		}
		h.Log.Error("profile: display name update failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	apiresp.JSON(w, http.StatusOK, map[string]any{"display_name": name})
}

// HandleChangePassword handles POST /api/profile/password. The current
// password is verified before the new hash is written.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w, "Sign in required.")
		return
	}

	var in passwordInput
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apiresp.BadRequest(w, "Invalid JSON body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apiresp.Unauthorized(w, "Account no longer exists.")
			return
		}
		h.Log.Error("profile: user load failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)) != nil {
		apiresp.Forbidden(w, "wrong_password", "Current password is incorrect.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("profile: bcrypt failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}
	if err := h.Users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		h.Log.Error("profile: password update failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	h.Log.Info("password changed", zap.String("user_id", userID.Hex()))
	apiresp.JSON(w, http.StatusOK, map[string]any{"changed": true})
}
