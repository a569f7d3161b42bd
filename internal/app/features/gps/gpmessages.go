// internal/app/features/gps/gpmessages.go
package gps

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vibesslabs/vibess-server/internal/app/policy/gppolicy"
	"github.com/vibesslabs/vibess-server/internal/app/system/apiresp"
	"github.com/vibesslabs/vibess-server/internal/app/system/authz"
	"github.com/vibesslabs/vibess-server/internal/app/system/htmlsanitize"
	"github.com/vibesslabs/vibess-server/internal/app/system/inputval"
	"github.com/vibesslabs/vibess-server/internal/app/system/limits"
	"github.com/vibesslabs/vibess-server/internal/app/system/timeouts"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type messageInput struct {
	Body string `json:"body" validate:"required,max=2000" label:"Message"`
}

// messagePayload is the client view of one chat message.
type messagePayload struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// HandlePostMessage handles POST /api/gps/{id}/messages. Besides storing
// the message it advances the group's activity counters, and runs the
// one-shot permanence-eligibility check that message activity can
// trigger.
func (h *Handler) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w, "Sign in required.")
		return
	}

	var in messageInput
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apiresp.BadRequest(w, "Invalid JSON body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}
	body := htmlsanitize.Plain(in.Body)
	if body == "" {
		apiresp.BadRequest(w, "Message is required.")
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
		apiresp.Forbidden(w, "not_a_member", "Only members can post in this group.")
		return
	}

	msg, err := h.Messages.Create(ctx, models.GPMessage{
		GPID:   g.ID,
		UserID: userID,
		Body:   body,
	})
	if err != nil {
		h.Log.Error("gp message: insert failed",
			zap.String("gp_id", g.ID.Hex()), zap.Error(err))
		apiresp.InternalError(w)
		return
	}
	if err := h.GPs.RecordMessage(ctx, g.ID, now); err != nil {
		h.Log.Error("gp message: counter update failed",
			zap.String("gp_id", g.ID.Hex()), zap.Error(err))
	}

	h.checkConversionEligibility(ctx, g.ID, now)

	apiresp.JSON(w, http.StatusCreated, messagePayload{
		ID:        msg.ID.Hex(),
		UserID:    msg.UserID.Hex(),
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
	})
}

// checkConversionEligibility reloads the group and performs the one-shot
// flip into the permanence-eligible state when the thresholds are met.
// The store's guarded update keeps the requested_at stamp from being
// rewritten by racing messages.
func (h *Handler) checkConversionEligibility(ctx context.Context, gpID primitive.ObjectID, now time.Time) {
	g, err := h.GPs.GetByID(ctx, gpID)
	if err != nil {
		h.Log.Warn("eligibility check: reload failed",
			zap.String("gp_id", gpID.Hex()), zap.Error(err))
		return
	}
	if !g.ConversionEligibleAt(now) {
		return
	}
	if err := h.GPs.SetConversionEligible(ctx, gpID, now); err != nil {
		h.Log.Error("eligibility check: flip failed",
			zap.String("gp_id", gpID.Hex()), zap.Error(err))
		return
	}
	h.Log.Info("gp became eligible for permanent conversion",
		zap.String("gp_id", gpID.Hex()))
}

// HandleListMessages handles GET /api/gps/{id}/messages. Member-only.
func (h *Handler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, loaded := h.loadGP(ctx, w, r)
	if !loaded {
		return
	}
	if !gppolicy.CanPost(r, &g) {
		apiresp.Forbidden(w, "not_a_member", "Only members can read this group's messages.")
		return
	}

	msgs, err := h.Messages.ListByGP(ctx, g.ID, 100)
	if err != nil {
		h.Log.Error("gp messages: list failed",
			zap.String("gp_id", g.ID.Hex()), zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	out := make([]messagePayload, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messagePayload{
			ID:        m.ID.Hex(),
			UserID:    m.UserID.Hex(),
			Body:      m.Body,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}
	apiresp.JSON(w, http.StatusOK, map[string]any{"messages": out})
}
