// internal/domain/models/loginhistory.go
package models

import "time"

// LoginRecord captures a single successful sign-in event.
// CreatedAt is indexed for recent-activity views.
type LoginRecord struct {
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
	IP        string    `bson:"ip"`
	UserAgent string    `bson:"user_agent,omitempty"`
	Method    string    `bson:"method"` // password | signup
}
