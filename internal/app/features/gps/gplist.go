// internal/app/features/gps/gplist.go
package gps

import (
	"context"
	"net/http"

	"github.com/vibesslabs/vibess-server/internal/app/system/apiresp"
	"github.com/vibesslabs/vibess-server/internal/app/system/timeouts"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.uber.org/zap"
)

// ServeList handles GET /api/gps. An optional ?category= filter narrows
// the listing. Permanent groups are included; lapsed ones are filtered
// out even if their stored status has not caught up yet.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" {
		if _, ok := models.FindCategory(category); !ok {
			apiresp.BadRequest(w, "Unknown category.")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	now := timeNow()
	groups, err := h.GPs.ListActive(ctx, category, now)
	if err != nil {
		h.Log.Error("gp list failed", zap.Error(err))
		apiresp.InternalError(w)
		return
	}

	out := make([]gpResponse, 0, len(groups))
	for i := range groups {
		if !groups[i].IsEffectivelyActive(now) {
			continue
		}
		out = append(out, toResponse(&groups[i], now, false))
	}
	apiresp.JSON(w, http.StatusOK, map[string]any{"groups": out})
}

// ServeCategories handles GET /api/gps/categories: the fixed category
// table with allowed sub-types and genres, for client-side pickers.
func (h *Handler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	apiresp.JSON(w, http.StatusOK, map[string]any{"categories": models.Categories})
}
