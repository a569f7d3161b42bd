// internal/domain/models/ledger.go
package models

import (
	"time"
)

// CreationLedger is the per-user gate state for GP creation: the
// append-only creation history and the post-creation cooldown stamp.
// It is a value object assembled from user fields so the gate rules can
// be exercised without a database.
type CreationLedger struct {
	History       []GPCreationRecord
	CooldownUntil *time.Time
}

// GateReason identifies why the ledger gate blocked a creation.
type GateReason string

const (
	GateOK             GateReason = ""
	GateDailyLimit     GateReason = "daily_limit_exceeded"
	GateCooldownActive GateReason = "cooldown_active"
)

// GateResult is the outcome of the per-user ledger checks. When blocked
// by cooldown, CooldownMinutes carries the whole minutes remaining
// (rounded up) so the caller can render an actionable message.
type GateResult struct {
	Allowed         bool
	Reason          GateReason
	CooldownMinutes int
}

// CreatedOn counts history entries whose CreatedAt falls on the given
// calendar day in loc.
func (l CreationLedger) CreatedOn(day time.Time, loc *time.Location) int {
	y, m, d := day.In(loc).Date()
	n := 0
	for _, rec := range l.History {
		ry, rm, rd := rec.CreatedAt.In(loc).Date()
		if ry == y && rm == m && rd == d {
			n++
		}
	}
	return n
}

// CooldownRemaining returns the time left on the cooldown, or zero if no
// cooldown is set or it has already passed.
func (l CreationLedger) CooldownRemaining(now time.Time) time.Duration {
	if l.CooldownUntil == nil || !l.CooldownUntil.After(now) {
		return 0
	}
	return l.CooldownUntil.Sub(now)
}

// Check applies the pure ledger rules in order: daily limit first, then
// cooldown. Category exclusivity needs a query and is checked separately
// by the caller. Read-only; recording a creation is a distinct step.
func (l CreationLedger) Check(now time.Time, loc *time.Location) GateResult {
	if loc == nil {
		loc = time.UTC
	}
	if l.CreatedOn(now, loc) >= DailyCreationLimit {
		return GateResult{Reason: GateDailyLimit}
	}
	if rem := l.CooldownRemaining(now); rem > 0 {
		mins := int((rem + time.Minute - 1) / time.Minute)
		return GateResult{Reason: GateCooldownActive, CooldownMinutes: mins}
	}
	return GateResult{Allowed: true}
}
