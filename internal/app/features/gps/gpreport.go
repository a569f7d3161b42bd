// internal/app/features/gps/gpreport.go
package gps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vibesslabs/vibess-server/internal/app/policy/gppolicy"
	gpstore "github.com/vibesslabs/vibess-server/internal/app/store/gps"
	"github.com/vibesslabs/vibess-server/internal/app/system/apiresp"
	"github.com/vibesslabs/vibess-server/internal/app/system/limits"
	"github.com/vibesslabs/vibess-server/internal/app/system/status"
	"github.com/vibesslabs/vibess-server/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleReport handles POST /api/gps/{id}/report: a member flags the
// group for toxicity. Any nonzero flag count permanently disqualifies
// the group from permanence eligibility.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, loaded := h.loadGP(ctx, w, r)
	if !loaded {
		return
	}
	if !gppolicy.CanPost(r, &g) {
		apiresp.Forbidden(w, "not_a_member", "Only members can report this group.")
		return
	}

	if err := h.GPs.IncrementToxicity(ctx, g.ID); err != nil {
		if errors.Is(err, gpstore.ErrNotFound) {
			apiresp.NotFound(w, "Group not found.")
			return
		}
		h.Log.Error("gp report failed",
			zap.String("gp_id", g.ID.Hex()), zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	h.Log.Info("gp reported",
		zap.String("gp_id", g.ID.Hex()))
	apiresp.JSON(w, http.StatusOK, map[string]any{"reported": true})
}

type statusInput struct {
	Status string `json:"status"`
}

// HandleSetStatus handles POST /api/gps/{id}/status: a creator or admin
// forces a lifecycle transition (e.g. closing a group early).
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apiresp.BadRequest(w, "Invalid JSON body.")
		return
	}
	if !status.IsValidGP(in.Status) {
		apiresp.BadRequest(w, "Unknown status.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, loaded := h.loadGP(ctx, w, r)
	if !loaded {
		return
	}
	if !gppolicy.CanManage(r, &g) {
		apiresp.Forbidden(w, "forbidden", "Only the creator or an admin can change the group status.")
		return
	}

	now := timeNow()
	if err := h.GPs.SetStatus(ctx, g.ID, in.Status, now); err != nil {
		h.Log.Error("gp status change failed",
			zap.String("gp_id", g.ID.Hex()), zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	h.Log.Info("gp status changed",
		zap.String("gp_id", g.ID.Hex()),
		zap.String("status", in.Status))
	apiresp.JSON(w, http.StatusOK, map[string]any{"status": in.Status})
}
