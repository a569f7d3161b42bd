// internal/app/features/gps/gpmembers.go
package gps

import (
	"context"
	"net/http"

	"github.com/vibesslabs/vibess-server/internal/app/system/apiresp"
	"github.com/vibesslabs/vibess-server/internal/app/system/authz"
	"github.com/vibesslabs/vibess-server/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleJoin handles POST /api/gps/{id}/join. Joining a group you are
// already in succeeds without change.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w, "Sign in required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, loaded := h.loadGP(ctx, w, r)
	if !loaded {
		return
	}

	now := timeNow()
	if !g.IsEffectivelyActive(now) {
		apiresp.Forbidden(w, "gp_not_active", "This group is no longer active.")
		return
	}
	if g.HasMember(userID) {
		apiresp.JSON(w, http.StatusOK, toResponse(&g, now, true))
		return
	}
	if len(g.Members) >= g.MaxMembers {
		apiresp.Conflict(w, "gp_full", "This group is already full.")
		return
	}

	if err := h.GPs.AddMember(ctx, g.ID, userID, now); err != nil {
		// The store re-checks the cap in its filter, so a concurrent
		// join can surface here as not-found.
		apiresp.Conflict(w, "gp_full", "This group is already full.")
		return
	}

	g, err := h.GPs.GetByID(ctx, g.ID)
	if err != nil {
		h.Log.Error("gp join: reload failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	h.Log.Info("gp member joined",
		zap.String("gp_id", g.ID.Hex()),
		zap.String("user_id", userID.Hex()))
	apiresp.JSON(w, http.StatusOK, toResponse(&g, now, true))
}

// HandleLeave handles POST /api/gps/{id}/leave. Leaving a group you are
// not in is a no-op.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w, "Sign in required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, loaded := h.loadGP(ctx, w, r)
	if !loaded {
		return
	}

	now := timeNow()
	if err := h.GPs.RemoveMember(ctx, g.ID, userID, now); err != nil {
		h.Log.Error("gp leave failed",
			zap.String("gp_id", g.ID.Hex()), zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	h.Log.Info("gp member left",
		zap.String("gp_id", g.ID.Hex()),
		zap.String("user_id", userID.Hex()))
	apiresp.JSON(w, http.StatusOK, map[string]any{"left": true})
}
