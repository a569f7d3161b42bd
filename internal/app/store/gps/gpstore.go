// internal/app/store/gps/gpstore.go
package gpstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
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
	ErrNotFound = errors.New("gp not found")

	// ErrNoWeakGP is returned by ReapWeakest when no group meets the
	// weak-closure criteria.
	ErrNoWeakGP = errors.New("no weak gp to reap")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("gps")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.GP, error) {
	var g models.GP
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.GP{}, ErrNotFound
		}
		return models.GP{}, err
	}
	return g, nil
}

func (s *Store) GetByInviteCode(ctx context.Context, code string) (models.GP, error) {
	var g models.GP
	err := s.c.FindOne(ctx, bson.M{"invite_code": strings.TrimSpace(code)}).Decode(&g)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.GP{}, ErrNotFound
		}
		return models.GP{}, err
	}
	return g, nil
}

// Create inserts a new GP. The caller supplies classification, creator,
// location, and member cap; the store stamps identity, timestamps, the
// invite code, and the expiry window.
func (s *Store) Create(ctx context.Context, g models.GP) (models.GP, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.Status = status.Active
	g.StartedAt = now
	g.ExpiresAt = now.Add(models.GPWindow)
	g.LastActivityAt = now
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Members == nil {
		g.Members = []primitive.ObjectID{g.CreatedBy}
	}
	if g.InviteCode == "" {
		g.InviteCode = newInviteCode()
	}

	_, err := s.c.InsertOne(ctx, g)
	if err != nil {
		// The unique index on invite_code can collide on the 8-char
		// prefix; retry once with a fresh code.
		if wafflemongo.IsDup(err) {
			g.InviteCode = newInviteCode()
			if _, err2 := s.c.InsertOne(ctx, g); err2 != nil {
				return models.GP{}, err2
			}
			return g, nil
		}
		return models.GP{}, err
	}
	return g, nil
}

func newInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// HasActiveInCategory reports whether the user already holds a live GP in
// the category. A GP counts as live while its window is open, or
// indefinitely once it is permanent or awaiting a permanence vote.
func (s *Store) HasActiveInCategory(ctx context.Context, userID primitive.ObjectID, category string, now time.Time) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"created_by": userID,
		"category":   category,
		"status":     status.Active,
		"$or": []bson.M{
			{"expires_at": bson.M{"$gt": now}},
			{"is_permanent": true},
			{"permanent_conversion_eligible": true},
		},
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountsByCategory returns per-category counts of GPs that occupy a
// capacity slot (active, non-permanent, window still open).
func (s *Store) CountsByCategory(ctx context.Context, now time.Time) (map[string]int, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":       status.Active,
			"is_permanent": false,
			"expires_at":   bson.M{"$gt": now},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$category",
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int)
	for cur.Next(ctx) {
		var row struct {
			Category string `bson:"_id"`
			Count    int    `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Category] = row.Count
	}
	return counts, cur.Err()
}

// ListActive returns GPs that are open for conversation, permanent ones
// included, newest activity first.
func (s *Store) ListActive(ctx context.Context, category string, now time.Time) ([]models.GP, error) {
	filter := bson.M{
		"status": status.Active,
		"$or": []bson.M{
			{"expires_at": bson.M{"$gt": now}},
			{"is_permanent": true},
		},
	}
	if category != "" {
		filter["category"] = category
	}

	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "last_activity_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GP
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Suggestions returns up to limit joinable GPs in the category for the
// soft-decline payload, most recently active first.
func (s *Store) Suggestions(ctx context.Context, category string, now time.Time, limit int) ([]models.GP, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"category":     category,
		"status":       status.Active,
		"is_permanent": false,
		"expires_at":   bson.M{"$gt": now},
		"$expr":        bson.M{"$lt": []any{bson.M{"$size": "$members"}, "$max_members"}},
	}, options.Find().
		SetSort(bson.D{{Key: "last_activity_at", Value: -1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GP
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReapWeakest force-closes the single weakest GP in the category: active,
// non-permanent, at least 15 minutes old, still only its creator, fewer
// than 3 messages, and silent for 30 minutes. Oldest start wins. The
// filter and update run as one findAndModify so concurrent reapers never
// close the same group twice.
func (s *Store) ReapWeakest(ctx context.Context, category string, now time.Time) (models.GP, error) {
	filter := bson.M{
		"category":         category,
		"status":           status.Active,
		"is_permanent":     false,
		"started_at":       bson.M{"$lte": now.Add(-models.WeakMinAge)},
		"members":          bson.M{"$size": 1},
		"message_count":    bson.M{"$lt": models.WeakMaxMessages},
		"last_activity_at": bson.M{"$lte": now.Add(-models.WeakInactiveAfter)},
	}
	update := bson.M{"$set": bson.M{
		"status":     status.Failed,
		"expires_at": now,
		"updated_at": now,
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "started_at", Value: 1}}).
		SetReturnDocument(options.After)

	var g models.GP
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&g)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.GP{}, ErrNoWeakGP
		}
		return models.GP{}, err
	}
	return g, nil
}

// MarkLapsedExpired flips active, non-permanent GPs whose window has
// closed to expired. Returns the count and the distinct categories that
// freed a slot, so the caller can notify waitlists.
func (s *Store) MarkLapsedExpired(ctx context.Context, now time.Time) (int64, []string, error) {
	filter := bson.M{
		"status":       status.Active,
		"is_permanent": false,
		"expires_at":   bson.M{"$lte": now},
	}

	raw, err := s.c.Distinct(ctx, "category", filter)
	if err != nil {
		return 0, nil, err
	}
	var categories []string
	for _, v := range raw {
		if c, ok := v.(string); ok {
			categories = append(categories, c)
		}
	}
	if len(categories) == 0 {
		return 0, nil, nil
	}

	res, err := s.c.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"status":     status.Expired,
		"updated_at": now,
	}})
	if err != nil {
		return 0, nil, err
	}
	return res.ModifiedCount, categories, nil
}

// AddMember adds the user to the member list and refreshes activity.
// Idempotent via $addToSet; the member cap is checked in the filter so a
// concurrent join cannot push past max_members.
func (s *Store) AddMember(ctx context.Context, gpID, userID primitive.ObjectID, now time.Time) error {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"_id":    gpID,
		"status": status.Active,
		"$expr":  bson.M{"$lt": []any{bson.M{"$size": "$members"}, "$max_members"}},
	}, bson.M{
		"$addToSet": bson.M{"members": userID},
		"$set":      bson.M{"last_activity_at": now, "updated_at": now},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMember pulls the user from the member list. Removing a user who
// is not a member is a no-op.
func (s *Store) RemoveMember(ctx context.Context, gpID, userID primitive.ObjectID, now time.Time) error {
	_, err := s.c.UpdateByID(ctx, gpID, bson.M{
		"$pull": bson.M{"members": userID},
		"$set":  bson.M{"last_activity_at": now, "updated_at": now},
	})
	return err
}

// RecordMessage bumps the message counter and activity timestamp, and
// stamps first_message_at on the first message only.
func (s *Store) RecordMessage(ctx context.Context, gpID primitive.ObjectID, now time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{
		"_id":              gpID,
		"first_message_at": bson.M{"$exists": false},
	}, bson.M{"$set": bson.M{"first_message_at": now}})
	if err != nil {
		return err
	}
	_, err = s.c.UpdateByID(ctx, gpID, bson.M{
		"$inc": bson.M{"message_count": 1},
		"$set": bson.M{"last_activity_at": now, "updated_at": now},
	})
	return err
}

// SetConversionEligible performs the one-shot flip into the
// permanence-eligible state. The filter re-checks the guard so two
// racing writers stamp permanent_conversion_requested_at only once.
func (s *Store) SetConversionEligible(ctx context.Context, gpID primitive.ObjectID, now time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{
		"_id":                           gpID,
		"status":                        status.Active,
		"is_permanent":                  false,
		"permanent_conversion_eligible": false,
	}, bson.M{"$set": bson.M{
		"permanent_conversion_eligible":     true,
		"permanent_conversion_requested_at": now,
		"updated_at":                        now,
	}})
	return err
}

// AddVote records a conversion ballot. The filter excludes users who
// already voted, so duplicates are silently dropped.
func (s *Store) AddVote(ctx context.Context, gpID primitive.ObjectID, vote models.GPVote) error {
	_, err := s.c.UpdateOne(ctx, bson.M{
		"_id":                                gpID,
		"permanent_conversion_votes.user_id": bson.M{"$ne": vote.UserID},
	}, bson.M{
		"$push": bson.M{"permanent_conversion_votes": vote},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// ConvertToPermanent flips is_permanent. The GP stays active and stops
// counting against capacity.
func (s *Store) ConvertToPermanent(ctx context.Context, gpID primitive.ObjectID, now time.Time) error {
	res, err := s.c.UpdateOne(ctx, bson.M{
		"_id":          gpID,
		"status":       status.Active,
		"is_permanent": false,
	}, bson.M{"$set": bson.M{
		"is_permanent": true,
		"updated_at":   now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementToxicity bumps the toxicity flag counter from a member report.
func (s *Store) IncrementToxicity(ctx context.Context, gpID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, gpID, bson.M{
		"$inc": bson.M{"toxicity_flags": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus is an admin escape hatch for forcing a lifecycle transition.
func (s *Store) SetStatus(ctx context.Context, gpID primitive.ObjectID, st string, now time.Time) error {
	if !status.IsValidGP(st) {
		return errors.New("invalid gp status: " + st)
	}
	res, err := s.c.UpdateByID(ctx, gpID, bson.M{"$set": bson.M{
		"status":     st,
		"updated_at": now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
