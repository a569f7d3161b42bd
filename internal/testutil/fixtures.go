// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user account.
func (f *Fixtures) CreateUser(ctx context.Context, displayName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		Email:         email,
		PasswordHash:  "$2a$10$testhashtesthashtesthashtesthashtesthashtesthashtest",
		DisplayName:   displayName,
		DisplayNameCI: text.Fold(displayName),
		Role:          "member",
		Status:        "active",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateActiveUser creates a user whose location was pinged at the given
// time, so it counts toward the planner's active-user total when the
// ping is recent enough.
func (f *Fixtures) CreateActiveUser(ctx context.Context, displayName, email string, lastLocationAt time.Time) models.User {
	f.t.Helper()

	user := f.CreateUser(ctx, displayName, email)
	user.Location = &models.GeoPoint{Lat: 30.27, Lng: -97.74}
	user.LastLocationAt = &lastLocationAt

	_, err := f.db.Collection("users").ReplaceOne(ctx,
		map[string]any{"_id": user.ID}, user)
	if err != nil {
		f.t.Fatalf("failed to update test user location: %v", err)
	}
	return user
}

// GPOption mutates a GP fixture before insertion.
type GPOption func(*models.GP)

// WithMembers sets the member list.
func WithMembers(ids ...primitive.ObjectID) GPOption {
	return func(g *models.GP) { g.Members = ids }
}

// WithStartedAt backdates the group's start (and aligns expiry with the
// standard window).
func WithStartedAt(at time.Time) GPOption {
	return func(g *models.GP) {
		g.StartedAt = at
		g.ExpiresAt = at.Add(models.GPWindow)
	}
}

// WithLastActivityAt sets the activity timestamp.
func WithLastActivityAt(at time.Time) GPOption {
	return func(g *models.GP) { g.LastActivityAt = at }
}

// WithMessageCount sets the message counter.
func WithMessageCount(n int) GPOption {
	return func(g *models.GP) { g.MessageCount = n }
}

// WithStatus overrides the stored status.
func WithStatus(s string) GPOption {
	return func(g *models.GP) { g.Status = s }
}

// WithPermanent marks the group permanent.
func WithPermanent() GPOption {
	return func(g *models.GP) { g.IsPermanent = true }
}

// CreateGP creates a test group in the category owned by creator, active
// and freshly started unless options say otherwise.
func (f *Fixtures) CreateGP(ctx context.Context, category string, creator primitive.ObjectID, opts ...GPOption) models.GP {
	f.t.Helper()

	now := time.Now().UTC()
	g := models.GP{
		ID:             primitive.NewObjectID(),
		Category:       category,
		SubType:        defaultSubType(category),
		TalkTopics:     []string{"anything"},
		CreationReason: "test",
		CreatedBy:      creator,
		Members:        []primitive.ObjectID{creator},
		MaxMembers:     models.MaxMembers,
		InviteCode:     primitive.NewObjectID().Hex()[:8],
		StartedAt:      now,
		ExpiresAt:      now.Add(models.GPWindow),
		LastActivityAt: now,
		Status:         "active",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(&g)
	}

	if _, err := f.db.Collection("gps").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test gp: %v", err)
	}
	return g
}

func defaultSubType(category string) string {
	if spec, ok := models.FindCategory(category); ok && len(spec.SubTypes) > 0 {
		return spec.SubTypes[0]
	}
	return "general"
}
