// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/vibesslabs/vibess-server/internal/app/system/indexes"
	"go.uber.org/zap"
)

// EnsureSchema reconciles the index sets for every collection. Runs on
// every startup; each index ensure is idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return indexes.EnsureAll(ctx, deps.MongoDatabase)
}
