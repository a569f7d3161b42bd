// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/vibesslabs/vibess-server/internal/app/system/normalize"
	"github.com/vibesslabs/vibess-server/internal/app/system/status"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("an account with this email already exists")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// Create inserts a new account. The caller supplies the bcrypt hash.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.DisplayNameCI = text.Fold(u.DisplayName)
	if u.Role == "" {
		u.Role = "member"
	}
	if u.Status == "" {
		u.Status = status.UserActive
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// UpdateLocation records a heartbeat ping. last_location_at drives the
// capacity planner's active-user count.
func (s *Store) UpdateLocation(ctx context.Context, userID primitive.ObjectID, pt models.GeoPoint, now time.Time) error {
	res, err := s.c.UpdateByID(ctx, userID, bson.M{"$set": bson.M{
		"location":         pt,
		"last_location_at": now,
		"updated_at":       now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActiveSince counts users whose location was updated at or after
// the cutoff.
func (s *Store) CountActiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"last_location_at": bson.M{"$gte": cutoff},
	})
}

// RecordCreation appends to the user's creation history and stamps the
// post-creation cooldown.
func (s *Store) RecordCreation(ctx context.Context, userID, gpID primitive.ObjectID, now time.Time) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$push": bson.M{"gp_creation_history": models.GPCreationRecord{
			GroupID:   gpID,
			CreatedAt: now,
		}},
		"$set": bson.M{
			"gp_cooldown_until": now.Add(models.CreationCooldown),
			"updated_at":        now,
		},
	})
	return err
}

// WaitlistAdd records interest in a category. Idempotent: if the user
// already holds an unnotified entry for the category, nothing is added
// and added=false is returned.
func (s *Store) WaitlistAdd(ctx context.Context, userID primitive.ObjectID, category string, now time.Time) (added bool, err error) {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"_id": userID,
		"gp_waitlist": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"category": category,
			"notified": false,
		}}},
	}, bson.M{
		"$push": bson.M{"gp_waitlist": models.WaitlistEntry{
			Category:    category,
			RequestedAt: now,
			Notified:    false,
		}},
		"$set": bson.M{"updated_at": now},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// WaitlistRemove drops every entry for the category. Removing an absent
// entry is a no-op.
func (s *Store) WaitlistRemove(ctx context.Context, userID primitive.ObjectID, category string) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{
		"$pull": bson.M{"gp_waitlist": bson.M{"category": category}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// NotifyNextWaitlisted marks the oldest unnotified waitlist entry for the
// category as notified and returns the owning user. Returns found=false
// when the waitlist for the category is empty.
func (s *Store) NotifyNextWaitlisted(ctx context.Context, category string, now time.Time) (models.User, bool, error) {
	// Unwind to order by the entry's own requested_at rather than the
	// document-level minimum.
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$unwind", Value: "$gp_waitlist"}},
		{{Key: "$match", Value: bson.M{
			"gp_waitlist.category": category,
			"gp_waitlist.notified": false,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "gp_waitlist.requested_at", Value: 1}}}},
		{{Key: "$limit", Value: 1}},
		{{Key: "$project", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return models.User{}, false, err
	}
	defer cur.Close(ctx)

	var hit struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if !cur.Next(ctx) {
		return models.User{}, false, cur.Err()
	}
	if err := cur.Decode(&hit); err != nil {
		return models.User{}, false, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err = s.c.FindOneAndUpdate(ctx, bson.M{
		"_id": hit.ID,
		"gp_waitlist": bson.M{"$elemMatch": bson.M{
			"category": category,
			"notified": false,
		}},
	}, bson.M{"$set": bson.M{
		"gp_waitlist.$.notified": true,
		"updated_at":             now,
	}}, opts).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Another worker got there first.
			return models.User{}, false, nil
		}
		return models.User{}, false, err
	}
	return u, true, nil
}

// SetStatus enables or disables an account.
func (s *Store) SetStatus(ctx context.Context, userID primitive.ObjectID, st string) error {
	res, err := s.c.UpdateByID(ctx, userID, bson.M{"$set": bson.M{
		"status":     st,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDisplayName changes the display name, keeping the folded copy in
// sync.
func (s *Store) UpdateDisplayName(ctx context.Context, userID primitive.ObjectID, name string) error {
	res, err := s.c.UpdateByID(ctx, userID, bson.M{"$set": bson.M{
		"display_name":    name,
		"display_name_ci": text.Fold(name),
		"updated_at":      time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (s *Store) UpdatePassword(ctx context.Context, userID primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateByID(ctx, userID, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
