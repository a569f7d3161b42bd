// Package capacity holds the pure admission math for the GP capacity
// planner: the dynamic system-wide ceiling and the reservation rule that
// keeps every empty category reachable.
//
// The planner re-derives everything from a fresh snapshot on every call.
// There is no caching and no locking; correctness under concurrency is
// bounded by the document store's per-document atomicity (an accepted
// limitation, not an invariant).
package capacity

import "time"

// Ceiling tuning constants.
const (
	// ActiveUserWindow bounds how recent a user's location ping must be
	// for them to count toward the ceiling.
	ActiveUserWindow = 30 * time.Minute

	// MinActiveUsers is the population below which the ceiling is fixed.
	MinActiveUsers = 15

	// FloorMaxGPs is the fixed ceiling for small populations.
	FloorMaxGPs = 6

	// UsersPerGP scales the ceiling once the population is large enough:
	// one GP slot per 2.5 recently active users.
	UsersPerGP = 2.5
)

// Snapshot is the system state the planner decides against, computed per
// creation request: how many users were recently active, and how many
// active non-permanent GPs exist per category.
type Snapshot struct {
	ActiveUsers int
	// PerCategory is seeded with every category name mapped to zero
	// before counting, so never-used categories register as empty.
	PerCategory map[string]int
}

// Total returns the current number of slot-occupying GPs.
func (s Snapshot) Total() int {
	n := 0
	for _, c := range s.PerCategory {
		n += c
	}
	return n
}

// TotalMaxGPs computes the system-wide ceiling from the active-user
// count: a fixed floor for small populations, then one slot per
// UsersPerGP users.
func TotalMaxGPs(activeUsers int) int {
	if activeUsers < MinActiveUsers {
		return FloorMaxGPs
	}
	return int(float64(activeUsers) / UsersPerGP)
}

// EmptyCategoriesExcluding counts categories with exactly zero active
// GPs, excluding the target. Each empty category is reserved one slot so
// no category can be starved out of its first group.
func EmptyCategoriesExcluding(perCategory map[string]int, target string) int {
	n := 0
	for cat, count := range perCategory {
		if cat == target {
			continue
		}
		if count == 0 {
			n++
		}
	}
	return n
}

// Decision is the planner's verdict for one creation request.
type Decision struct {
	Admit           bool
	TotalMaxGPs     int
	CurrentTotalGPs int
	EmptyCategories int
}

// Decide applies the admission rule: the new group plus one reserved slot
// per other empty category must fit under the ceiling.
func Decide(snap Snapshot, target string) Decision {
	d := Decision{
		TotalMaxGPs:     TotalMaxGPs(snap.ActiveUsers),
		CurrentTotalGPs: snap.Total(),
		EmptyCategories: EmptyCategoriesExcluding(snap.PerCategory, target),
	}
	d.Admit = d.CurrentTotalGPs+1+d.EmptyCategories <= d.TotalMaxGPs
	return d
}
