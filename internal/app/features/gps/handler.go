// internal/app/features/gps/handler.go
package gps

import (
	"time"

	gpstore "github.com/vibesslabs/vibess-server/internal/app/store/gps"
	messagestore "github.com/vibesslabs/vibess-server/internal/app/store/messages"
	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the GP feature: group
// creation with its gate/planner/reaper pipeline, membership, messages,
// permanence votes, and reports.
type Handler struct {
	GPs      *gpstore.Store
	Users    *userstore.Store
	Messages *messagestore.Store
	Log      *zap.Logger

	// DayLoc is the timezone used for the daily creation limit's
	// calendar-day boundary.
	DayLoc *time.Location
}

// NewHandler constructs a GP Handler. It is typically called from the
// bootstrap BuildHandler function.
func NewHandler(gps *gpstore.Store, users *userstore.Store, messages *messagestore.Store, dayLoc *time.Location, logger *zap.Logger) *Handler {
	if dayLoc == nil {
		dayLoc = time.UTC
	}
	return &Handler{
		GPs:      gps,
		Users:    users,
		Messages: messages,
		Log:      logger,
		DayLoc:   dayLoc,
	}
}

// timeNow is swapped in tests.
var timeNow = func() time.Time { return time.Now().UTC() }
