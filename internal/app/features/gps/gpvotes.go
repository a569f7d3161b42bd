// internal/app/features/gps/gpvotes.go
package gps

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vibesslabs/vibess-server/internal/app/policy/gppolicy"
	"github.com/vibesslabs/vibess-server/internal/app/system/apiresp"
	"github.com/vibesslabs/vibess-server/internal/app/system/authz"
	"github.com/vibesslabs/vibess-server/internal/app/system/limits"
	"github.com/vibesslabs/vibess-server/internal/app/system/timeouts"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.uber.org/zap"
)

type voteInput struct {
	Approve bool `json:"approve"`
}

// HandleVote handles POST /api/gps/{id}/votes: one permanence ballot per
// member. When the running tally reaches the approval threshold the
// group is converted on the spot and stops counting against capacity.
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w, "Sign in required.")
		return
	}

	var in voteInput
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apiresp.BadRequest(w, "Invalid JSON body.")
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
	if !gppolicy.CanPost(r, &g) {
		apiresp.Forbidden(w, "not_a_member", "Only members can vote.")
		return
	}
	if g.IsPermanent {
		apiresp.Conflict(w, "already_permanent", "This group is already permanent.")
		return
	}
	if !g.PermanentConversionEligible {
		apiresp.Forbidden(w, "not_eligible", "This group is not eligible for a permanence vote yet.")
		return
	}
	if g.HasVoted(userID) {
		apiresp.Conflict(w, "already_voted", "You have already voted.")
		return
	}

	vote := models.GPVote{UserID: userID, Approve: in.Approve, VotedAt: now}
	if err := h.GPs.AddVote(ctx, g.ID, vote); err != nil {
		h.Log.Error("gp vote: record failed",
			zap.String("gp_id", g.ID.Hex()), zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	g, err := h.GPs.GetByID(ctx, g.ID)
	if err != nil {
		h.Log.Error("gp vote: reload failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	converted := false
	if models.ConversionApproved(g.PermanentConversionVotes) {
		if err := h.GPs.ConvertToPermanent(ctx, g.ID, now); err != nil {
			h.Log.Error("gp vote: conversion failed",
				zap.String("gp_id", g.ID.Hex()), zap.Error(err))
		} else {
			converted = true
			g.IsPermanent = true
			h.Log.Info("gp converted to permanent",
				zap.String("gp_id", g.ID.Hex()),
				zap.Int("votes", len(g.PermanentConversionVotes)))
		}
	}

	apiresp.JSON(w, http.StatusOK, map[string]any{
		"votes":     len(g.PermanentConversionVotes),
		"converted": converted,
		"group":     toResponse(&g, now, true),
	})
}
