// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureGPs(ctx, db); err != nil {
		problems = append(problems, "gps: "+err.Error())
	}
	if err := ensureGPMessages(ctx, db); err != nil {
		problems = append(problems, "gp_messages: "+err.Error())
	}
	if err := ensureLoginRecords(ctx, db); err != nil {
		problems = append(problems, "login_records: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("users")
	return ensureIndexSet(ctx, coll, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email").SetUnique(true),
		},
		{
			// Capacity snapshots count users with a recent location ping.
			Keys:    bson.D{{Key: "last_location_at", Value: -1}},
			Options: options.Index().SetName("last_location_at_desc"),
		},
		{
			Keys:    bson.D{{Key: "gp_waitlist.category", Value: 1}, {Key: "gp_waitlist.requested_at", Value: 1}},
			Options: options.Index().SetName("waitlist_category_requested"),
		},
	})
}

func ensureGPs(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("gps")
	return ensureIndexSet(ctx, coll, []mongo.IndexModel{
		{
			// Capacity counting: active, non-permanent, unexpired GPs by category.
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "is_permanent", Value: 1}, {Key: "expires_at", Value: 1}, {Key: "category", Value: 1}},
			Options: options.Index().SetName("status_permanent_expires_category"),
		},
		{
			// One-active-per-category check for a creator.
			Keys:    bson.D{{Key: "created_by", Value: 1}, {Key: "category", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("creator_category_status"),
		},
		{
			// Reaper ordering: oldest weak GP first.
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "started_at", Value: 1}},
			Options: options.Index().SetName("status_started_at"),
		},
		{
			Keys:    bson.D{{Key: "invite_code", Value: 1}},
			Options: options.Index().SetName("uniq_invite_code").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetName("members"),
		},
	})
}

func ensureGPMessages(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("gp_messages")
	return ensureIndexSet(ctx, coll, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "gp_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("gp_created_at"),
		},
	})
}

func ensureLoginRecords(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("login_records")
	return ensureIndexSet(ctx, coll, []mongo.IndexModel{
		{
			// Last-login lookup on the profile page.
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created_desc"),
		},
	})
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique))

		// 1) Load existing indexes
		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
			cur.Close(ctx)
		}

		if ex, ok := existing[desiredSig]; ok {
			// Same key pattern exists already.
			if sameBoolPtr(desiredUnique, ex.Unique) {
				// Name alignment: if the name differs, drop & recreate with the desired name.
				if desiredName != "" && ex.Name != desiredName {
					if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
						errs = append(errs, fmt.Sprintf("%s(%s): rename drop failed: %v", coll.Name(), desiredName, err))
						continue
					}
					if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
						errs = append(errs, fmt.Sprintf("%s(%s): rename create failed: %v", coll.Name(), desiredName, err))
						continue
					}
					zap.L().Info("index renamed",
						zap.String("collection", coll.Name()),
						zap.String("name", desiredName),
						zap.String("keys", desiredSig),
						zap.String("took", time.Since(start).String()))
					continue
				}

				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig),
					zap.String("took", time.Since(start).String()))
				continue
			}

			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
					errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
				} else {
					errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				}
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.String("took", time.Since(start).String()))
			continue
		}

		// 2) No existing index with the same keys: create it.
		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				// An index with the same keys exists under another name; the
				// reconcile pass above missed it (listing can race with other
				// replicas at startup). Treat as satisfied.
				zap.L().Warn("index options conflict, treating as satisfied",
					zap.String("collection", coll.Name()),
					zap.String("name", desiredName),
					zap.String("keys", desiredSig))
				continue
			}
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}
		zap.L().Info("index created",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
