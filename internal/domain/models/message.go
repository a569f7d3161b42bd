// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GPMessage is one chat message inside a GP. Messages exist to drive the
// engagement counters on the parent GP; they are not a full messaging
// product.
type GPMessage struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	GPID      primitive.ObjectID `bson:"gp_id" json:"gp_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Body      string             `bson:"body" json:"body"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
