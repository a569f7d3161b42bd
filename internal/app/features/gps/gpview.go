// internal/app/features/gps/gpview.go
package gps

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vibesslabs/vibess-server/internal/app/policy/gppolicy"
	gpstore "github.com/vibesslabs/vibess-server/internal/app/store/gps"
	"github.com/vibesslabs/vibess-server/internal/app/system/apiresp"
	"github.com/vibesslabs/vibess-server/internal/app/system/authz"
	"github.com/vibesslabs/vibess-server/internal/app/system/timeouts"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// loadGP resolves the {id} URL param and fetches the GP. Writes the
// error response and returns ok=false on failure.
func (h *Handler) loadGP(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.GP, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apiresp.BadRequest(w, "Invalid group id.")
		return models.GP{}, false
	}

	g, err := h.GPs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gpstore.ErrNotFound) {
			apiresp.NotFound(w, "Group not found.")
			return models.GP{}, false
		}
		h.Log.Error("gp load failed", zap.String("gp_id", id.Hex()), zap.Error(err))
		apiresp.InternalError(w)
		return models.GP{}, false
	}
	return g, true
}

// ServeView handles GET /api/gps/{id}. Status and time_left are derived
// at read time, so a lapsed group reads as expired even before the sweep
// worker has touched it.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, ok := h.loadGP(ctx, w, r)
	if !ok {
		return
	}
	if !gppolicy.CanView(r, &g) {
		apiresp.Forbidden(w, "forbidden", "You do not have access to this group.")
		return
	}

	_, _, userID, _ := authz.UserCtx(r)
	apiresp.JSON(w, http.StatusOK, toResponse(&g, timeNow(), g.HasMember(userID)))
}
