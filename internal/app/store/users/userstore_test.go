// internal/app/store/users/userstore_test.go
package userstore_test

import (
	"errors"
	"testing"
	"time"

	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"github.com/vibesslabs/vibess-server/internal/app/system/indexes"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"github.com/vibesslabs/vibess-server/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Email:        "Jordan@Example.COM",
		PasswordHash: "hash",
		DisplayName:  "Jordan",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "jordan@example.com" {
		t.Errorf("email not normalized: %q", created.Email)
	}
	if created.Role != "member" {
		t.Errorf("role: got %q, want member", created.Role)
	}
	if created.DisplayNameCI == "" {
		t.Error("expected DisplayNameCI to be set")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// The unique index enforces the duplicate; ensure it first.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	u := models.User{Email: "dup@example.com", PasswordHash: "h", DisplayName: "One"}
	if _, err := store.Create(ctx, u); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{Email: "dup@example.com", PasswordHash: "h", DisplayName: "Two"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("got %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_CountActiveSince(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	fixtures.CreateActiveUser(ctx, "Recent", "recent@test.com", now.Add(-10*time.Minute))
	fixtures.CreateActiveUser(ctx, "Stale", "stale@test.com", now.Add(-45*time.Minute))
	fixtures.CreateUser(ctx, "Never", "never@test.com")

	n, err := store.CountActiveSince(ctx, now.Add(-30*time.Minute))
	if err != nil {
		t.Fatalf("CountActiveSince failed: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d, want 1", n)
	}
}

func TestStore_RecordCreation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	u := fixtures.CreateUser(ctx, "Creator", "creator@test.com")
	gpID := primitive.NewObjectID()

	if err := store.RecordCreation(ctx, u.ID, gpID, now); err != nil {
		t.Fatalf("RecordCreation failed: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.GPCreationHistory) != 1 || got.GPCreationHistory[0].GroupID != gpID {
		t.Errorf("history: got %v, want one entry for %v", got.GPCreationHistory, gpID)
	}
	if got.GPCooldownUntil == nil {
		t.Fatal("expected cooldown to be stamped")
	}
	want := now.Add(models.CreationCooldown)
	if got.GPCooldownUntil.Sub(want).Abs() > time.Second {
		t.Errorf("cooldown: got %v, want ~%v", got.GPCooldownUntil, want)
	}
}

func TestStore_WaitlistAdd_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	u := fixtures.CreateUser(ctx, "Waiter", "waiter@test.com")

	added, err := store.WaitlistAdd(ctx, u.ID, "music", now)
	if err != nil {
		t.Fatalf("WaitlistAdd failed: %v", err)
	}
	if !added {
		t.Error("first add should report added=true")
	}

	added, err = store.WaitlistAdd(ctx, u.ID, "music", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second WaitlistAdd failed: %v", err)
	}
	if added {
		t.Error("duplicate add should report added=false")
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.GPWaitlist) != 1 {
		t.Errorf("waitlist entries: got %d, want 1", len(got.GPWaitlist))
	}

	// A different category is its own entry.
	if added, _ := store.WaitlistAdd(ctx, u.ID, "movies", now); !added {
		t.Error("different category should add")
	}
}

func TestStore_WaitlistRemove_AbsentIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Waiter", "waiter@test.com")
	if err := store.WaitlistRemove(ctx, u.ID, "music"); err != nil {
		t.Fatalf("WaitlistRemove of absent entry failed: %v", err)
	}
}

func TestStore_NotifyNextWaitlisted_OldestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	second := fixtures.CreateUser(ctx, "Second", "second@test.com")
	first := fixtures.CreateUser(ctx, "First", "first@test.com")

	// Insertion order is reversed from request order on purpose.
	if _, err := store.WaitlistAdd(ctx, second.ID, "music", now.Add(-time.Minute)); err != nil {
		t.Fatalf("WaitlistAdd failed: %v", err)
	}
	if _, err := store.WaitlistAdd(ctx, first.ID, "music", now.Add(-time.Hour)); err != nil {
		t.Fatalf("WaitlistAdd failed: %v", err)
	}

	notified, found, err := store.NotifyNextWaitlisted(ctx, "music", now)
	if err != nil {
		t.Fatalf("NotifyNextWaitlisted failed: %v", err)
	}
	if !found {
		t.Fatal("expected a user to be notified")
	}
	if notified.ID != first.ID {
		t.Errorf("notified %v, want the oldest request %v", notified.ID, first.ID)
	}

	// The second call moves on to the next oldest.
	notified, found, err = store.NotifyNextWaitlisted(ctx, "music", now)
	if err != nil {
		t.Fatalf("second NotifyNextWaitlisted failed: %v", err)
	}
	if !found || notified.ID != second.ID {
		t.Errorf("second notify: got (%v, %v), want %v", notified.ID, found, second.ID)
	}

	// Nothing left.
	_, found, err = store.NotifyNextWaitlisted(ctx, "music", now)
	if err != nil {
		t.Fatalf("third NotifyNextWaitlisted failed: %v", err)
	}
	if found {
		t.Error("expected empty waitlist")
	}
}
