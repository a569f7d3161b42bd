// internal/domain/models/gp_test.go
package models_test

import (
	"testing"
	"time"

	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func activeGP(startedAt time.Time) models.GP {
	return models.GP{
		ID:             primitive.NewObjectID(),
		Category:       "music",
		SubType:        "listening-party",
		CreatedBy:      primitive.NewObjectID(),
		Members:        []primitive.ObjectID{primitive.NewObjectID()},
		MaxMembers:     models.MaxMembers,
		StartedAt:      startedAt,
		ExpiresAt:      startedAt.Add(models.GPWindow),
		LastActivityAt: startedAt,
		Status:         "active",
	}
}

func TestGP_EffectiveStatus(t *testing.T) {
	now := time.Now().UTC()

	g := activeGP(now.Add(-time.Hour))
	if got := g.EffectiveStatus(now); got != "active" {
		t.Errorf("inside window: got %q, want active", got)
	}

	// Lapsed window but stored status not updated yet.
	g = activeGP(now.Add(-models.GPWindow - time.Minute))
	if got := g.EffectiveStatus(now); got != "expired" {
		t.Errorf("lapsed: got %q, want expired", got)
	}

	// Permanent groups never lapse by timestamp.
	g = activeGP(now.Add(-models.GPWindow - time.Minute))
	g.IsPermanent = true
	if got := g.EffectiveStatus(now); got != "active" {
		t.Errorf("permanent lapsed: got %q, want active", got)
	}

	// Terminal statuses pass through unchanged.
	g = activeGP(now)
	g.Status = "failed"
	if got := g.EffectiveStatus(now); got != "failed" {
		t.Errorf("failed: got %q, want failed", got)
	}
}

func TestGP_TimeLeft(t *testing.T) {
	now := time.Now().UTC()

	g := activeGP(now)
	g.ExpiresAt = now.Add(90*time.Minute + 30*time.Second)
	if got := g.TimeLeft(now); got == nil || *got != 90 {
		t.Errorf("got %v, want 90 (floor of 90.5)", got)
	}

	// Monotonically decreasing in whole minutes as time advances.
	prev := 90
	for elapsed := time.Minute; elapsed <= 5*time.Minute; elapsed += time.Minute {
		got := g.TimeLeft(now.Add(elapsed))
		if got == nil {
			t.Fatalf("unexpected nil at elapsed=%v", elapsed)
		}
		if *got >= prev {
			t.Errorf("elapsed=%v: got %d, want < %d", elapsed, *got, prev)
		}
		prev = *got
	}

	// Floored at zero at and after expiry.
	if got := g.TimeLeft(g.ExpiresAt); got == nil || *got != 0 {
		t.Errorf("at expiry: got %v, want 0", got)
	}
	if got := g.TimeLeft(g.ExpiresAt.Add(time.Hour)); got == nil || *got != 0 {
		t.Errorf("after expiry: got %v, want 0", got)
	}

	// Permanent groups have no expiry regardless of the stored timestamp.
	g.IsPermanent = true
	g.ExpiresAt = now.Add(-time.Hour)
	if got := g.TimeLeft(now); got != nil {
		t.Errorf("permanent: got %v, want nil", got)
	}
}

func TestGP_IsWeak(t *testing.T) {
	now := time.Now().UTC()

	weak := activeGP(now.Add(-20 * time.Minute))
	weak.MessageCount = 2
	weak.LastActivityAt = now.Add(-35 * time.Minute)
	if !weak.IsWeak(now) {
		t.Error("expected group meeting all thresholds to be weak")
	}

	tests := []struct {
		name   string
		mutate func(*models.GP)
	}{
		{"too young", func(g *models.GP) {
			g.StartedAt = now.Add(-10 * time.Minute)
		}},
		{"grew past creator", func(g *models.GP) {
			g.Members = append(g.Members, primitive.NewObjectID())
		}},
		{"chatty", func(g *models.GP) {
			g.MessageCount = models.WeakMaxMessages
		}},
		{"recently active", func(g *models.GP) {
			g.LastActivityAt = now.Add(-10 * time.Minute)
		}},
		{"permanent", func(g *models.GP) {
			g.IsPermanent = true
		}},
		{"already failed", func(g *models.GP) {
			g.Status = "failed"
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := activeGP(now.Add(-20 * time.Minute))
			g.MessageCount = 2
			g.LastActivityAt = now.Add(-35 * time.Minute)
			tc.mutate(&g)
			if g.IsWeak(now) {
				t.Error("expected not weak")
			}
		})
	}
}

func TestGP_ConversionEligibleAt_OneShot(t *testing.T) {
	now := time.Now().UTC()

	g := activeGP(now.Add(-models.ConversionMinAge - time.Minute))
	g.Members = []primitive.ObjectID{
		primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(),
	}

	if !g.ConversionEligibleAt(now) {
		t.Fatal("expected group meeting all thresholds to be eligible")
	}

	// Once flipped, further qualifying activity never re-triggers.
	g.PermanentConversionEligible = true
	if g.ConversionEligibleAt(now) {
		t.Error("expected eligibility to be one-shot")
	}
}

func TestGP_ConversionEligibleAt_Thresholds(t *testing.T) {
	now := time.Now().UTC()

	base := func() models.GP {
		g := activeGP(now.Add(-models.ConversionMinAge - time.Minute))
		g.Members = []primitive.ObjectID{
			primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(),
		}
		return g
	}

	g := base()
	g.Members = g.Members[:2]
	if g.ConversionEligibleAt(now) {
		t.Error("two members should not be eligible")
	}

	g = base()
	g.StartedAt = now.Add(-models.ConversionMinAge + time.Minute)
	if g.ConversionEligibleAt(now) {
		t.Error("too-young group should not be eligible")
	}

	g = base()
	g.ToxicityFlags = 1
	if g.ConversionEligibleAt(now) {
		t.Error("flagged group should not be eligible")
	}

	g = base()
	g.IsPermanent = true
	if g.ConversionEligibleAt(now) {
		t.Error("permanent group should not be eligible")
	}
}

func TestConversionApproved(t *testing.T) {
	uid := primitive.NewObjectID
	yes := func() models.GPVote { return models.GPVote{UserID: uid(), Approve: true} }
	no := func() models.GPVote { return models.GPVote{UserID: uid(), Approve: false} }

	if models.ConversionApproved(nil) {
		t.Error("no votes should not approve")
	}
	// 2/3 = 0.667 < 0.70
	if models.ConversionApproved([]models.GPVote{yes(), yes(), no()}) {
		t.Error("2 of 3 should not approve")
	}
	// 3/4 = 0.75 >= 0.70
	if !models.ConversionApproved([]models.GPVote{yes(), yes(), yes(), no()}) {
		t.Error("3 of 4 should approve")
	}
	// 7/10 = 0.70 exactly
	votes := []models.GPVote{yes(), yes(), yes(), yes(), yes(), yes(), yes(), no(), no(), no()}
	if !models.ConversionApproved(votes) {
		t.Error("exactly 70% should approve")
	}
}

func TestGP_CountsAgainstCapacity(t *testing.T) {
	now := time.Now().UTC()

	g := activeGP(now)
	if !g.CountsAgainstCapacity(now) {
		t.Error("fresh active group should count")
	}

	g.IsPermanent = true
	if g.CountsAgainstCapacity(now) {
		t.Error("permanent group should not count")
	}

	g = activeGP(now.Add(-models.GPWindow - time.Minute))
	if g.CountsAgainstCapacity(now) {
		t.Error("lapsed group should not count")
	}
}
