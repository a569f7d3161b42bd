// internal/app/features/gps/handler_test.go
package gps_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibesslabs/vibess-server/internal/app/features/gps"
	gpstore "github.com/vibesslabs/vibess-server/internal/app/store/gps"
	messagestore "github.com/vibesslabs/vibess-server/internal/app/store/messages"
	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"github.com/vibesslabs/vibess-server/internal/domain/models"
	"github.com/vibesslabs/vibess-server/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*gps.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	handler := gps.NewHandler(
		gpstore.New(db),
		userstore.New(db),
		messagestore.New(db),
		time.UTC,
		zap.NewNop(),
	)
	fixtures := testutil.NewFixtures(t, db)
	return handler, fixtures
}

func createBody() map[string]any {
	return map[string]any{
		"category":        "music",
		"sub_type":        "listening-party",
		"talk_topics":     []string{"new releases"},
		"creation_reason": "hang out",
		"lat":             30.27,
		"lng":             -97.74,
	}
}

func errorPart(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	e, ok := env["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %v", env)
	}
	return e
}

func TestHandleCreate_Success(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Creator", "creator@test.com")

	req := testutil.NewJSONRequest(t, "POST", "/api/gps", createBody())
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	env := testutil.DecodeEnvelope(t, rec)
	data, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data envelope, got %v", env)
	}
	if data["category"] != "music" {
		t.Errorf("category: got %v", data["category"])
	}
	if data["status"] != "active" {
		t.Errorf("status: got %v", data["status"])
	}
	if data["invite_code"] == "" || data["invite_code"] == nil {
		t.Error("expected invite code for the creator")
	}

	// The ledger is stamped as part of creation.
	var stored models.User
	err := fixtures.DB().Collection("users").FindOne(ctx, bson.M{"_id": u.ID}).Decode(&stored)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if len(stored.GPCreationHistory) != 1 {
		t.Errorf("history entries: got %d, want 1", len(stored.GPCreationHistory))
	}
	if stored.GPCooldownUntil == nil {
		t.Error("expected cooldown to be stamped")
	}
}

func TestHandleCreate_ValidationError(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Creator", "creator@test.com")

	body := createBody()
	delete(body, "category")
	req := testutil.NewJSONRequest(t, "POST", "/api/gps", body)
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleCreate_InvalidSubType(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Creator", "creator@test.com")

	body := createBody()
	body["sub_type"] = "watch-party" // belongs to movies
	req := testutil.NewJSONRequest(t, "POST", "/api/gps", body)
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleCreate_DailyLimit(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	u := fixtures.CreateUser(ctx, "Creator", "creator@test.com")
	history := []models.GPCreationRecord{
		{GroupID: primitive.NewObjectID(), CreatedAt: now.Add(-3 * time.Hour)},
		{GroupID: primitive.NewObjectID(), CreatedAt: now.Add(-5 * time.Hour)},
	}
	_, err := fixtures.DB().Collection("users").UpdateByID(ctx, u.ID,
		bson.M{"$set": bson.M{"gp_creation_history": history}})
	if err != nil {
		t.Fatalf("seed history: %v", err)
	}

	req := testutil.NewJSONRequest(t, "POST", "/api/gps", createBody())
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	e := errorPart(t, testutil.DecodeEnvelope(t, rec))
	if e["code"] != "daily_limit_exceeded" {
		t.Errorf("code: got %v, want daily_limit_exceeded", e["code"])
	}
}

func TestHandleCreate_Cooldown(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	u := fixtures.CreateUser(ctx, "Creator", "creator@test.com")
	until := now.Add(42*time.Minute + 30*time.Second)
	_, err := fixtures.DB().Collection("users").UpdateByID(ctx, u.ID,
		bson.M{"$set": bson.M{
			"gp_creation_history": []models.GPCreationRecord{
				{GroupID: primitive.NewObjectID(), CreatedAt: now.Add(-17 * time.Minute)},
			},
			"gp_cooldown_until": until,
		}})
	if err != nil {
		t.Fatalf("seed cooldown: %v", err)
	}

	req := testutil.NewJSONRequest(t, "POST", "/api/gps", createBody())
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	e := errorPart(t, testutil.DecodeEnvelope(t, rec))
	if e["code"] != "cooldown_active" {
		t.Fatalf("code: got %v, want cooldown_active", e["code"])
	}
	details, ok := e["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected cooldown details, got %v", e)
	}
	if mins, _ := details["cooldown_minutes"].(float64); int(mins) != 43 {
		t.Errorf("cooldown_minutes: got %v, want 43", details["cooldown_minutes"])
	}
}

func TestHandleCreate_ActiveGPInCategory(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Creator", "creator@test.com")
	fixtures.CreateGP(ctx, "music", u.ID)

	req := testutil.NewJSONRequest(t, "POST", "/api/gps", createBody())
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	e := errorPart(t, testutil.DecodeEnvelope(t, rec))
	if e["code"] != "active_gp_in_category" {
		t.Errorf("code: got %v, want active_gp_in_category", e["code"])
	}
}

// fillCategory creates n active groups in the category, none of them weak
// (two members each), owned by distinct creators.
func fillCategory(ctx context.Context, t *testing.T, fixtures *testutil.Fixtures, category string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		owner := fixtures.CreateUser(ctx, fmt.Sprintf("Owner%d", i),
			fmt.Sprintf("owner%d-%s@test.com", i, category))
		fixtures.CreateGP(ctx, category, owner.ID,
			testutil.WithMembers(owner.ID, primitive.NewObjectID()))
	}
}

func TestHandleCreate_CategoryFull_SoftDecline(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Few location pings means the small-population ceiling of six. Six
	// healthy music groups exhaust it once the three empty categories are
	// reserved, and none is weak enough to reap.
	fillCategory(ctx, t, fixtures, "music", 6)

	u := fixtures.CreateUser(ctx, "Late", "late@test.com")
	req := testutil.NewJSONRequest(t, "POST", "/api/gps", createBody())
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	e := errorPart(t, testutil.DecodeEnvelope(t, rec))
	if e["code"] != "category_full" {
		t.Fatalf("code: got %v, want category_full", e["code"])
	}

	details, ok := e["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected soft-decline details, got %v", e)
	}
	suggestions, ok := details["suggestions"].(map[string]any)
	if !ok {
		t.Fatalf("expected suggestions, got %v", details)
	}
	groups, ok := suggestions["groups"].([]any)
	if !ok || len(groups) == 0 {
		t.Errorf("expected joinable suggestions, got %v", suggestions["groups"])
	}
	if len(groups) > 2 {
		t.Errorf("suggestions capped at 2, got %d", len(groups))
	}
	actions, ok := details["actions"].(map[string]any)
	if !ok || actions["waitlist"] != true || actions["explore"] != true {
		t.Errorf("expected waitlist and explore actions, got %v", details["actions"])
	}
}

func TestHandleCreate_ReapsWeakestForSlot(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	fillCategory(ctx, t, fixtures, "music", 5)

	// One weak group: lone creator, no messages, idle past the threshold.
	loner := fixtures.CreateUser(ctx, "Loner", "loner@test.com")
	weak := fixtures.CreateGP(ctx, "music", loner.ID,
		testutil.WithStartedAt(now.Add(-20*time.Minute)),
		testutil.WithLastActivityAt(now.Add(-35*time.Minute)))

	u := fixtures.CreateUser(ctx, "Late", "late@test.com")
	req := testutil.NewJSONRequest(t, "POST", "/api/gps", createBody())
	req = testutil.WithUser(req, testutil.MemberUserWithID(u.ID))
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 after slot swap, got %d: %s", rec.Code, rec.Body.String())
	}

	var reaped models.GP
	err := fixtures.DB().Collection("gps").FindOne(ctx, bson.M{"_id": weak.ID}).Decode(&reaped)
	if err != nil {
		t.Fatalf("reload weak gp: %v", err)
	}
	if reaped.Status != "failed" {
		t.Errorf("weak gp status: got %q, want failed", reaped.Status)
	}
}

func TestHandleJoin(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	g := fixtures.CreateGP(ctx, "music", owner.ID)
	joiner := fixtures.CreateUser(ctx, "Joiner", "joiner@test.com")

	req := testutil.NewJSONRequest(t, "POST", "/api/gps/"+g.ID.Hex()+"/join", nil)
	req = testutil.WithUser(req, testutil.MemberUserWithID(joiner.ID))
	req = testutil.WithChiURLParam(req, "id", g.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleJoin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var stored models.GP
	if err := fixtures.DB().Collection("gps").FindOne(ctx, bson.M{"_id": g.ID}).Decode(&stored); err != nil {
		t.Fatalf("reload gp: %v", err)
	}
	if len(stored.Members) != 2 || !stored.HasMember(joiner.ID) {
		t.Errorf("members after join: %v", stored.Members)
	}

	// Joining again changes nothing.
	req = testutil.NewJSONRequest(t, "POST", "/api/gps/"+g.ID.Hex()+"/join", nil)
	req = testutil.WithUser(req, testutil.MemberUserWithID(joiner.ID))
	req = testutil.WithChiURLParam(req, "id", g.ID.Hex())
	rec = httptest.NewRecorder()
	handler.HandleJoin(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat join: expected 200, got %d", rec.Code)
	}
	if err := fixtures.DB().Collection("gps").FindOne(ctx, bson.M{"_id": g.ID}).Decode(&stored); err != nil {
		t.Fatalf("reload gp: %v", err)
	}
	if len(stored.Members) != 2 {
		t.Errorf("members after repeat join: got %d, want 2", len(stored.Members))
	}
}

func TestHandleJoin_Full(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	full := make([]primitive.ObjectID, 0, models.MaxMembers)
	full = append(full, owner.ID)
	for len(full) < models.MaxMembers {
		full = append(full, primitive.NewObjectID())
	}
	g := fixtures.CreateGP(ctx, "music", owner.ID, testutil.WithMembers(full...))

	joiner := fixtures.CreateUser(ctx, "Joiner", "joiner@test.com")
	req := testutil.NewJSONRequest(t, "POST", "/api/gps/"+g.ID.Hex()+"/join", nil)
	req = testutil.WithUser(req, testutil.MemberUserWithID(joiner.ID))
	req = testutil.WithChiURLParam(req, "id", g.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleJoin(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	e := errorPart(t, testutil.DecodeEnvelope(t, rec))
	if e["code"] != "gp_full" {
		t.Errorf("code: got %v, want gp_full", e["code"])
	}
}

func TestHandleJoin_LapsedGroup(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	g := fixtures.CreateGP(ctx, "music", owner.ID,
		testutil.WithStartedAt(now.Add(-models.GPWindow-time.Minute)))

	joiner := fixtures.CreateUser(ctx, "Joiner", "joiner@test.com")
	req := testutil.NewJSONRequest(t, "POST", "/api/gps/"+g.ID.Hex()+"/join", nil)
	req = testutil.WithUser(req, testutil.MemberUserWithID(joiner.ID))
	req = testutil.WithChiURLParam(req, "id", g.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleJoin(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	e := errorPart(t, testutil.DecodeEnvelope(t, rec))
	if e["code"] != "gp_not_active" {
		t.Errorf("code: got %v, want gp_not_active", e["code"])
	}
}

func TestHandleLeave_NonMemberIsNoop(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@test.com")
	g := fixtures.CreateGP(ctx, "music", owner.ID)
	outsider := fixtures.CreateUser(ctx, "Outsider", "outsider@test.com")

	req := testutil.NewJSONRequest(t, "POST", "/api/gps/"+g.ID.Hex()+"/leave", nil)
	req = testutil.WithUser(req, testutil.MemberUserWithID(outsider.ID))
	req = testutil.WithChiURLParam(req, "id", g.ID.Hex())
	rec := httptest.NewRecorder()
	handler.HandleLeave(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
