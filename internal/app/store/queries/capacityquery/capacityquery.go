// internal/app/store/queries/capacityquery/capacityquery.go
package capacityquery

import (
	"context"
	"time"

	gpstore "github.com/vibesslabs/vibess-server/internal/app/store/gps"
	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"github.com/vibesslabs/vibess-server/internal/app/system/capacity"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
)

// Snapshot assembles the planner's input for one creation request: the
// recently active user count and per-category counts of slot-occupying
// GPs. Every known category is seeded at zero so never-used categories
// count as empty for the reservation rule.
func Snapshot(ctx context.Context, users *userstore.Store, gps *gpstore.Store, now time.Time) (capacity.Snapshot, error) {
	active, err := users.CountActiveSince(ctx, now.Add(-capacity.ActiveUserWindow))
	if err != nil {
		return capacity.Snapshot{}, err
	}

	counts, err := gps.CountsByCategory(ctx, now)
	if err != nil {
		return capacity.Snapshot{}, err
	}

	per := make(map[string]int, len(models.Categories))
	for _, name := range models.CategoryNames() {
		per[name] = 0
	}
	for cat, n := range counts {
		per[cat] = n
	}

	return capacity.Snapshot{
		ActiveUsers: int(active),
		PerCategory: per,
	}, nil
}
