// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/text"
	gpstore "github.com/vibesslabs/vibess-server/internal/app/store/gps"
	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"github.com/vibesslabs/vibess-server/internal/app/system/mailer"
	"github.com/vibesslabs/vibess-server/internal/app/system/normalize"
	"github.com/vibesslabs/vibess-server/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// sweep is the running expiry sweep worker; started here, stopped in
// Shutdown.
var sweep *workers.ExpirySweep

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// Vibess promotes the configured admin account and starts the expiry
// sweep worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
	}

	sweep = workers.NewExpirySweep(
		gpstore.New(deps.MongoDatabase),
		userstore.New(deps.MongoDatabase),
		mailer.LogSender{Log: logger},
		appCfg.SiteName,
		appCfg.BaseURL,
		logger,
		appCfg.SweepInterval,
	)
	sweep.Start()

	return nil
}

// ensureAdmin promotes an existing account to admin, or creates a
// placeholder admin account that can complete signup by resetting its
// password. Idempotent across restarts.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	email = normalize.Email(email)
	coll := deps.MongoDatabase.Collection("users")

	now := time.Now().UTC()
	res, err := coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{
		"$set": bson.M{"role": "admin", "updated_at": now},
		"$setOnInsert": bson.M{
			"email":           email,
			"display_name":    "Admin",
			"display_name_ci": text.Fold("Admin"),
			"status":          "active",
			"created_at":      now,
		},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return err
	}

	if res.UpsertedCount > 0 {
		logger.Info("created admin account", zap.String("email", email))
	} else if res.ModifiedCount > 0 {
		logger.Info("promoted account to admin", zap.String("email", email))
	}
	return nil
}
