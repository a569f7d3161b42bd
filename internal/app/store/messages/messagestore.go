// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"time"

	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("gp_messages")}
}

// Create inserts a chat message. The GP-side counters are maintained
// separately by the gps store.
func (s *Store) Create(ctx context.Context, m models.GPMessage) (models.GPMessage, error) {
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.GPMessage{}, err
	}
	return m, nil
}

// ListByGP returns the most recent messages for a GP in chronological
// order, capped at limit.
func (s *Store) ListByGP(ctx context.Context, gpID primitive.ObjectID, limit int64) ([]models.GPMessage, error) {
	cur, err := s.c.Find(ctx, bson.M{"gp_id": gpID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.GPMessage
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	// Reverse into chronological order for display.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// CountByGP returns the number of stored messages for a GP.
func (s *Store) CountByGP(ctx context.Context, gpID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"gp_id": gpID})
}
