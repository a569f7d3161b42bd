// internal/app/features/waitlist/handler_test.go
package waitlist_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vibesslabs/vibess-server/internal/app/features/waitlist"
	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"github.com/vibesslabs/vibess-server/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*waitlist.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	handler := waitlist.NewHandler(userstore.New(db), zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	return handler, fixtures
}

func TestHandleJoin_Idempotent(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Waiter", "waiter@test.com")

	req := testutil.NewJSONRequest(t, "POST", "/api/waitlist/music", nil)
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	req = testutil.WithChiURLParam(req, "category", "music")
	rec := httptest.NewRecorder()
	handler.HandleJoin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := testutil.DecodeEnvelope(t, rec)["data"].(map[string]any)
	if data["added"] != true {
		t.Errorf("first join: added = %v, want true", data["added"])
	}

	// The repeat reports added=false and leaves a single entry.
	req = testutil.NewJSONRequest(t, "POST", "/api/waitlist/music", nil)
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	req = testutil.WithChiURLParam(req, "category", "music")
	rec = httptest.NewRecorder()
	handler.HandleJoin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("repeat join: expected 200, got %d", rec.Code)
	}
	data = testutil.DecodeEnvelope(t, rec)["data"].(map[string]any)
	if data["added"] != false {
		t.Errorf("repeat join: added = %v, want false", data["added"])
	}

	var stored models.User
	if err := fixtures.DB().Collection("users").FindOne(ctx, bson.M{"_id": u.ID}).Decode(&stored); err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if len(stored.GPWaitlist) != 1 {
		t.Errorf("waitlist entries: got %d, want 1", len(stored.GPWaitlist))
	}
}

func TestHandleJoin_UnknownCategory(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Waiter", "waiter@test.com")

	req := testutil.NewJSONRequest(t, "POST", "/api/waitlist/karaoke", nil)
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	req = testutil.WithChiURLParam(req, "category", "karaoke")
	rec := httptest.NewRecorder()
	handler.HandleJoin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleLeave(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Waiter", "waiter@test.com")

	join := testutil.NewJSONRequest(t, "POST", "/api/waitlist/music", nil)
	join = testutil.WithUser(join, testutil.MemberUserWithID(u.ID))
	join = testutil.WithChiURLParam(join, "category", "music")
	handler.HandleJoin(httptest.NewRecorder(), join)

	req := testutil.NewJSONRequest(t, "DELETE", "/api/waitlist/music", nil)
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	req = testutil.WithChiURLParam(req, "category", "music")
	rec := httptest.NewRecorder()
	handler.HandleLeave(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var stored models.User
	if err := fixtures.DB().Collection("users").FindOne(ctx, bson.M{"_id": u.ID}).Decode(&stored); err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if len(stored.GPWaitlist) != 0 {
		t.Errorf("waitlist entries after leave: got %d, want 0", len(stored.GPWaitlist))
	}

	// Leaving again still succeeds.
	req = testutil.NewJSONRequest(t, "DELETE", "/api/waitlist/music", nil)
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	req = testutil.WithChiURLParam(req, "category", "music")
	rec = httptest.NewRecorder()
	handler.HandleLeave(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("repeat leave: expected 200, got %d", rec.Code)
	}
}
