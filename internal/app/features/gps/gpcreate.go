// internal/app/features/gps/gpcreate.go
package gps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	gpstore "github.com/vibesslabs/vibess-server/internal/app/store/gps"
	"github.com/vibesslabs/vibess-server/internal/app/store/queries/capacityquery"
	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"github.com/vibesslabs/vibess-server/internal/app/system/apiresp"
	"github.com/vibesslabs/vibess-server/internal/app/system/authz"
	"github.com/vibesslabs/vibess-server/internal/app/system/capacity"
	"github.com/vibesslabs/vibess-server/internal/app/system/htmlsanitize"
	"github.com/vibesslabs/vibess-server/internal/app/system/inputval"
	"github.com/vibesslabs/vibess-server/internal/app/system/limits"
	"github.com/vibesslabs/vibess-server/internal/app/system/timeouts"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.uber.org/zap"
)

type createInput struct {
	Category       string   `json:"category" validate:"required" label:"Category"`
	SubType        string   `json:"sub_type" validate:"required" label:"Sub-type"`
	TalkTopics     []string `json:"talk_topics" validate:"required,min=1,max=3" label:"Talk topics"`
	CreationReason string   `json:"creation_reason" validate:"required,max=100" label:"Creation reason"`
	Lat            float64  `json:"lat" validate:"gte=-90,lte=90" label:"Latitude"`
	Lng            float64  `json:"lng" validate:"gte=-180,lte=180" label:"Longitude"`

	SpecificName string `json:"specific_name" validate:"max=100" label:"Specific name"`
	Genre        string `json:"genre" validate:"max=50" label:"Genre"`
	Description  string `json:"description" validate:"max=500" label:"Description"`
	ReasonNote   string `json:"reason_note" validate:"max=500" label:"Reason note"`
}

// softDecline is the 403 category_full payload: joinable alternatives in
// the same category plus the follow-up actions the client can offer.
type softDecline struct {
	Suggestions struct {
		Title  string      `json:"title"`
		Groups []gpSummary `json:"groups"`
	} `json:"suggestions"`
	Actions struct {
		Waitlist bool `json:"waitlist"`
		Explore  bool `json:"explore"`
	} `json:"actions"`
}

// HandleCreate handles POST /api/gps.
//
// The pipeline runs in order: input validation, the per-user ledger gate
// (daily limit, cooldown), category exclusivity, then the capacity
// planner. A planner rejection triggers one reaper pass over the target
// category; if that frees a slot the request is admitted without
// re-running the planner. Otherwise the caller gets the soft-decline
// payload with suggestions.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w, "Sign in required.")
		return
	}

	var in createInput
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apiresp.BadRequest(w, "Invalid JSON body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.ErrorWithDetails(w, http.StatusBadRequest, "validation_error", res.First(), res.Errors)
		return
	}

	spec, ok := models.FindCategory(in.Category)
	if !ok {
		apiresp.BadRequest(w, "Unknown category.")
		return
	}
	if !spec.AllowsSubType(in.SubType) {
		apiresp.BadRequest(w, fmt.Sprintf("Sub-type %q is not valid for category %q.", in.SubType, in.Category))
		return
	}
	if in.Genre != "" && !spec.AllowsGenre(in.Genre) {
		apiresp.BadRequest(w, fmt.Sprintf("Genre %q is not valid for category %q.", in.Genre, in.Category))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	now := timeNow()

	// Per-user ledger gate: daily limit, then cooldown.
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apiresp.Unauthorized(w, "Account no longer exists.")
			return
		}
		h.Log.Error("gp create: user load failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}
	gate := user.Ledger().Check(now, h.DayLoc)
	if !gate.Allowed {
		switch gate.Reason {
		case models.GateDailyLimit:
			apiresp.Forbidden(w, string(models.GateDailyLimit),
				fmt.Sprintf("You can only create %d groups per day.", models.DailyCreationLimit))
		case models.GateCooldownActive:
			apiresp.ErrorWithDetails(w, http.StatusForbidden, string(models.GateCooldownActive),
				fmt.Sprintf("You can create another group in %d minutes.", gate.CooldownMinutes),
				map[string]any{"cooldown_minutes": gate.CooldownMinutes})
		default:
			apiresp.Forbidden(w, "creation_blocked", "Group creation is not allowed right now.")
		}
		return
	}

	// One active group per category per creator.
	exists, err := h.GPs.HasActiveInCategory(ctx, userID, in.Category, now)
	if err != nil {
		h.Log.Error("gp create: exclusivity check failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}
	if exists {
		apiresp.Forbidden(w, "active_gp_in_category",
			fmt.Sprintf("You already have an active group in %s.", in.Category))
		return
	}

	// System capacity with per-category reservation.
	snap, err := capacityquery.Snapshot(ctx, h.Users, h.GPs, now)
	if err != nil {
		h.Log.Error("gp create: capacity snapshot failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}
	decision := capacity.Decide(snap, in.Category)
	if !decision.Admit {
		// One reaper pass: force-close the weakest group in the target
		// category and take its slot. A successful swap admits this
		// request directly.
		reaped, err := h.GPs.ReapWeakest(ctx, in.Category, now)
		if err != nil && !errors.Is(err, gpstore.ErrNoWeakGP) {
			h.Log.Error("gp create: reaper failed", zap.Error(err))
			apiresp.InternalError(w)
			return
		}
		if err != nil {
			h.rejectCategoryFull(ctx, w, in.Category, now)
			return
		}
		h.Log.Info("reaped weak gp for slot swap",
			zap.String("reaped_id", reaped.ID.Hex()),
			zap.String("category", in.Category))
	}

	g, err := h.GPs.Create(ctx, models.GP{
		Category:       in.Category,
		SubType:        in.SubType,
		SpecificName:   htmlsanitize.Plain(in.SpecificName),
		Genre:          in.Genre,
		Description:    htmlsanitize.Plain(in.Description),
		TalkTopics:     htmlsanitize.PlainAll(in.TalkTopics),
		CreationReason: htmlsanitize.Plain(in.CreationReason),
		ReasonNote:     htmlsanitize.Plain(in.ReasonNote),
		CreatedBy:      userID,
		MaxMembers:     models.MaxMembers,
		Location:       models.GeoPoint{Lat: in.Lat, Lng: in.Lng},
	})
	if err != nil {
		h.Log.Error("gp create: insert failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	// Stamp the ledger: history entry plus the cooldown. A failure here
	// leaves the group in place and the gate slightly looser than it
	// should be; log loudly and carry on.
	if err := h.Users.RecordCreation(ctx, userID, g.ID, now); err != nil {
		h.Log.Error("gp create: ledger stamp failed",
			zap.String("gp_id", g.ID.Hex()), zap.Error(err))
	}

	h.Log.Info("gp created",
		zap.String("gp_id", g.ID.Hex()),
		zap.String("category", g.Category),
		zap.String("created_by", userID.Hex()))

	apiresp.JSON(w, http.StatusCreated, toResponse(&g, now, true))
}

// rejectCategoryFull writes the soft-decline 403 with up to two joinable
// groups in the category. A suggestions query failure degrades to an
// empty list rather than masking the rejection.
func (h *Handler) rejectCategoryFull(ctx context.Context, w http.ResponseWriter, category string, now time.Time) {
	var payload softDecline
	payload.Suggestions.Title = fmt.Sprintf("These %s groups still have room", category)
	payload.Suggestions.Groups = []gpSummary{}
	payload.Actions.Waitlist = true
	payload.Actions.Explore = true

	suggested, err := h.GPs.Suggestions(ctx, category, now, 2)
	if err != nil {
		h.Log.Warn("gp create: suggestions query failed",
			zap.String("category", category), zap.Error(err))
	}
	for i := range suggested {
		payload.Suggestions.Groups = append(payload.Suggestions.Groups, toSummary(&suggested[i]))
	}

	apiresp.ErrorWithDetails(w, http.StatusForbidden, "category_full",
		"No capacity for a new group in this category right now.", payload)
}
