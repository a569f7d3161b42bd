// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a Vibess account.
//
// NOTE:
//   - The GP creation ledger (history, cooldown, waitlist) lives directly
//     on the user document, not in a separate collection. Build a
//     CreationLedger from these fields for gate decisions.
//   - LastLocationAt drives the planner's active-user count: a user is
//     "active" if their location was updated within the last 30 minutes.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email         string             `bson:"email" json:"email"`
	PasswordHash  string             `bson:"password_hash" json:"-"`
	DisplayName   string             `bson:"display_name" json:"display_name"`
	DisplayNameCI string             `bson:"display_name_ci" json:"-"` // lowercase, diacritics-stripped
	Role          string             `bson:"role" json:"role"`         // member | admin
	Status        string             `bson:"status,omitempty" json:"status,omitempty"`

	Location       *GeoPoint  `bson:"location,omitempty" json:"location,omitempty"`
	LastLocationAt *time.Time `bson:"last_location_at,omitempty" json:"last_location_at,omitempty"`

	GPCreationHistory []GPCreationRecord `bson:"gp_creation_history,omitempty" json:"-"`
	GPCooldownUntil   *time.Time         `bson:"gp_cooldown_until,omitempty" json:"-"`
	GPWaitlist        []WaitlistEntry    `bson:"gp_waitlist,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// GPCreationRecord is one append-only entry in a user's creation history.
type GPCreationRecord struct {
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// WaitlistEntry records interest in a category after a blocked creation.
type WaitlistEntry struct {
	Category    string    `bson:"category" json:"category"`
	RequestedAt time.Time `bson:"requested_at" json:"requested_at"`
	Notified    bool      `bson:"notified" json:"notified"`
}

// Ledger builds the creation-ledger value object from the user's fields.
func (u *User) Ledger() CreationLedger {
	return CreationLedger{
		History:       u.GPCreationHistory,
		CooldownUntil: u.GPCooldownUntil,
	}
}

// HasUnnotifiedWaitlist reports whether the user already holds an
// unnotified waitlist entry for the category.
func (u *User) HasUnnotifiedWaitlist(category string) bool {
	for _, e := range u.GPWaitlist {
		if e.Category == category && !e.Notified {
			return true
		}
	}
	return false
}
