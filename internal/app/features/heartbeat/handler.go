// internal/app/features/heartbeat/handler.go
package heartbeat

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
	"github.com/vibesslabs/vibess-server/internal/app/system/timeouts"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.uber.org/zap"
)

// timeNow is swapped in tests.
var timeNow = func() time.Time { return time.Now().UTC() }

// Handler records location heartbeats. The planner counts a user as
// active while their last heartbeat is within the activity window, so
// clients ping this endpoint periodically while the app is open.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

// NewHandler creates a new heartbeat handler.
func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

// heartbeatInput is the JSON body for the heartbeat endpoint.
type heartbeatInput struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90" label:"Latitude"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180" label:"Longitude"`
}

// ServeHeartbeat handles POST /api/heartbeat.
func (h *Handler) ServeHeartbeat(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w, "Sign in required.")
		return
	}

	var in heartbeatInput
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

	now := timeNow()
	err := h.Users.UpdateLocation(ctx, userID, models.GeoPoint{Lat: in.Lat, Lng: in.Lng}, now)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apiresp.Unauthorized(w, "Account no longer exists.")
			return
		}
		h.Log.Error("heartbeat: location update failed",
			zap.String("user_id", userID.Hex()), zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	apiresp.JSON(w, http.StatusOK, map[string]any{"recorded_at": now})
}
