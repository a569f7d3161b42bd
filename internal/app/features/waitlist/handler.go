// internal/app/features/waitlist/handler.go
package waitlist

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"github.com/vibesslabs/vibess-server/internal/app/system/apiresp"
	"github.com/vibesslabs/vibess-server/internal/app/system/authz"
	"github.com/vibesslabs/vibess-server/internal/app/system/timeouts"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler manages per-category waitlist membership. Entries live on the
// user document; notification happens from the expiry sweep worker when
// a category frees a slot.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

// timeNow is swapped in tests.
var timeNow = func() time.Time { return time.Now().UTC() }

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, string, bool) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w, "Sign in required.")
		return primitive.NilObjectID, "", false
	}
	category := chi.URLParam(r, "category")
	if _, found := models.FindCategory(category); !found {
		apiresp.BadRequest(w, "Unknown category.")
		return primitive.NilObjectID, "", false
	}
	return userID, category, true
}

// HandleJoin handles POST /api/waitlist/{category}. Adding twice is a
// no-op; the response reports whether a new entry was recorded.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	userID, category, ok := h.resolve(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	added, err := h.Users.WaitlistAdd(ctx, userID, category, timeNow())
	if err != nil {
		h.Log.Error("waitlist join failed",
			zap.String("category", category), zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	apiresp.JSON(w, http.StatusOK, map[string]any{
		"category": category,
		"added":    added,
	})
}

// HandleLeave handles DELETE /api/waitlist/{category}. Removing an
// absent entry succeeds quietly.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	userID, category, ok := h.resolve(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.WaitlistRemove(ctx, userID, category); err != nil {
		h.Log.Error("waitlist leave failed",
			zap.String("category", category), zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	apiresp.JSON(w, http.StatusOK, map[string]any{
		"category": category,
		"removed":  true,
	})
}
