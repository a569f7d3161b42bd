// internal/domain/models/gp.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Timing and threshold constants for the GP lifecycle. The window must be
// long enough that a group can reach permanence eligibility before it
// lapses.
const (
	// GPWindow is how long a freshly created GP lives before it expires.
	GPWindow = 4 * time.Hour

	// CreationCooldown is stamped on the creator after every successful
	// creation; a second creation is blocked until it passes.
	CreationCooldown = time.Hour

	// DailyCreationLimit caps creations per user per local calendar day.
	DailyCreationLimit = 2

	MinMembers = 2
	MaxMembers = 5

	// Permanence eligibility thresholds.
	ConversionMinMembers = 3
	ConversionMinAge     = 150 * time.Minute // 2.5 hours
	ConversionVoteRatio  = 0.70

	// Weak-GP thresholds used by the reaper.
	WeakMinAge        = 15 * time.Minute
	WeakMaxMessages   = 3
	WeakInactiveAfter = 30 * time.Minute
)

// GPVote is a single permanent-conversion ballot.
type GPVote struct {
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
	Approve bool               `bson:"approve" json:"approve"`
	VotedAt time.Time          `bson:"voted_at" json:"voted_at"`
}

// GeoPoint is a simple lat/lng pair attached to users and GPs.
type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// GP is a Vibess group: an ephemeral conversation space scoped to one
// category, with a member cap and a fixed lifetime unless it is converted
// to permanent by member vote.
//
// NOTE:
//   - The stored Status field may lag wall-clock expiry. Readers must go
//     through EffectiveStatus/IsEffectivelyActive rather than trusting
//     Status alone.
//   - GPs are never physically deleted; terminal states are expressed as
//     status transitions (expired, failed, converted).
type GP struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Category       string             `bson:"category" json:"category"`
	SubType        string             `bson:"sub_type" json:"sub_type"`
	SpecificName   string             `bson:"specific_name,omitempty" json:"specific_name,omitempty"`
	Genre          string             `bson:"genre,omitempty" json:"genre,omitempty"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	TalkTopics     []string           `bson:"talk_topics" json:"talk_topics"`
	CreationReason string             `bson:"creation_reason" json:"creation_reason"`
	ReasonNote     string             `bson:"reason_note,omitempty" json:"reason_note,omitempty"`

	CreatedBy  primitive.ObjectID   `bson:"created_by" json:"created_by"`
	Members    []primitive.ObjectID `bson:"members" json:"members"`
	MaxMembers int                  `bson:"max_members" json:"max_members"`
	InviteCode string               `bson:"invite_code" json:"invite_code"`
	Location   GeoPoint             `bson:"location" json:"location"`

	StartedAt      time.Time  `bson:"started_at" json:"started_at"`
	ExpiresAt      time.Time  `bson:"expires_at" json:"expires_at"`
	FirstMessageAt *time.Time `bson:"first_message_at,omitempty" json:"first_message_at,omitempty"`
	LastActivityAt time.Time  `bson:"last_activity_at" json:"last_activity_at"`

	Status string `bson:"status" json:"status"`

	IsPermanent                    bool       `bson:"is_permanent" json:"is_permanent"`
	PermanentConversionEligible    bool       `bson:"permanent_conversion_eligible" json:"permanent_conversion_eligible"`
	PermanentConversionRequestedAt *time.Time `bson:"permanent_conversion_requested_at,omitempty" json:"permanent_conversion_requested_at,omitempty"`
	PermanentConversionVotes       []GPVote   `bson:"permanent_conversion_votes,omitempty" json:"permanent_conversion_votes,omitempty"`

	MessageCount  int `bson:"message_count" json:"message_count"`
	ToxicityFlags int `bson:"toxicity_flags" json:"toxicity_flags"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EffectiveStatus reconciles the stored status with wall-clock time.
// An active, non-permanent GP whose window has lapsed is reported as
// expired even if no writer has updated the document yet.
func (g *GP) EffectiveStatus(now time.Time) string {
	if g.Status == "active" && !g.IsPermanent && !g.ExpiresAt.After(now) {
		return "expired"
	}
	return g.Status
}

// IsEffectivelyActive reports whether the GP is open for conversation:
// stored status active and either permanent or still inside its window.
func (g *GP) IsEffectivelyActive(now time.Time) bool {
	if g.Status != "active" {
		return false
	}
	return g.IsPermanent || g.ExpiresAt.After(now)
}

// CountsAgainstCapacity reports whether the GP occupies a system slot:
// active, non-permanent, and not yet lapsed. Permanent GPs live outside
// the capacity ceiling.
func (g *GP) CountsAgainstCapacity(now time.Time) bool {
	return g.Status == "active" && !g.IsPermanent && g.ExpiresAt.After(now)
}

// TimeLeft returns whole minutes until expiry, floored at zero. Permanent
// GPs have no expiry and return nil.
func (g *GP) TimeLeft(now time.Time) *int {
	if g.IsPermanent {
		return nil
	}
	mins := int(g.ExpiresAt.Sub(now) / time.Minute)
	if mins < 0 {
		mins = 0
	}
	return &mins
}

// IsWeak reports whether the GP qualifies for forced closure by the
// reaper: old enough to judge, never grew past its creator, nearly
// silent, and dormant.
func (g *GP) IsWeak(now time.Time) bool {
	if g.Status != "active" || g.IsPermanent {
		return false
	}
	if g.StartedAt.After(now.Add(-WeakMinAge)) {
		return false
	}
	if len(g.Members) != 1 {
		return false
	}
	if g.MessageCount >= WeakMaxMessages {
		return false
	}
	return !g.LastActivityAt.After(now.Add(-WeakInactiveAfter))
}

// ConversionEligibleAt reports whether the GP should flip into the
// permanence-eligible state. The transition is one-shot: once eligible
// (or already permanent), later qualifying activity never re-triggers it.
func (g *GP) ConversionEligibleAt(now time.Time) bool {
	if g.Status != "active" || g.IsPermanent || g.PermanentConversionEligible {
		return false
	}
	if len(g.Members) < ConversionMinMembers {
		return false
	}
	if g.ToxicityFlags != 0 {
		return false
	}
	return now.Sub(g.StartedAt) >= ConversionMinAge
}

// ConversionApproved tallies the accumulated votes. Approval requires at
// least one vote and a yes share of at least ConversionVoteRatio. Pure
// over the votes slice; callers decide what to do with the result.
func ConversionApproved(votes []GPVote) bool {
	if len(votes) == 0 {
		return false
	}
	yes := 0
	for _, v := range votes {
		if v.Approve {
			yes++
		}
	}
	return float64(yes)/float64(len(votes)) >= ConversionVoteRatio
}

// HasMember reports whether the user is in the member list.
func (g *GP) HasMember(userID primitive.ObjectID) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// HasVoted reports whether the user already cast a conversion vote.
func (g *GP) HasVoted(userID primitive.ObjectID) bool {
	for _, v := range g.PermanentConversionVotes {
		if v.UserID == userID {
			return true
		}
	}
	return false
}
