// internal/app/store/logins/loginstore.go
package loginstore

import (
	"context"
	"net/http"
	"time"

	"github.com/vibesslabs/vibess-server/internal/app/system/ratelimit"
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
	return &Store{c: db.Collection("login_records")}
}

// Create inserts a LoginRecord. If CreatedAt is zero, it's set to time.Now().UTC().
func (s *Store) Create(ctx context.Context, rec models.LoginRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// CreateFrom builds a LoginRecord from the HTTP request and inserts it.
// The client IP honors the usual proxy headers.
func (s *Store) CreateFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID, method string) error {
	rec := models.LoginRecord{
		UserID:    userID.Hex(),
		CreatedAt: time.Now().UTC(),
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Method:    method,
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// LastLogin returns the most recent sign-in for the user, or nil if the
// user has never signed in.
func (s *Store) LastLogin(ctx context.Context, userID primitive.ObjectID) (*models.LoginRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var rec models.LoginRecord
	err := s.c.FindOne(ctx, bson.M{"user_id": userID.Hex()}, opts).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
