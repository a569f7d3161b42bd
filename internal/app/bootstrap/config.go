// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Vibess.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_key, etc.
//   - Environment variables: VIBESS_MONGO_URI, VIBESS_SESSION_KEY, etc.
//   - Command-line flags: --mongo_uri, --session_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "vibess", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	{Name: "day_timezone", Default: "UTC", Desc: "IANA timezone for the daily creation limit's day boundary"},
	{Name: "sweep_interval", Default: "1m", Desc: "How often the expiry sweep worker runs (e.g., 30s, 1m, 5m)"},

	{Name: "site_name", Default: "Vibess", Desc: "Site name used in outbound email"},
	{Name: "base_url", Default: "https://vibess.app", Desc: "Public base URL used in outbound email links"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the admin user (promotes/creates on startup)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, VIBESS_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "VIBESS", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionDomain: appValues.String("session_domain"),

		DayTimezone:   appValues.String("day_timezone"),
		SweepInterval: appValues.Duration("sweep_interval", time.Minute),

		SiteName: appValues.String("site_name"),
		BaseURL:  appValues.String("base_url"),

		AdminEmail: appValues.String("admin_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Vibess validates the MongoDB URI format and the day-boundary timezone
// to catch configuration errors early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if _, err := time.LoadLocation(appCfg.DayTimezone); err != nil {
		return fmt.Errorf("invalid day_timezone %q: %w", appCfg.DayTimezone, err)
	}
	if appCfg.SweepInterval < time.Second {
		return fmt.Errorf("sweep_interval %s is too short; use at least 1s", appCfg.SweepInterval)
	}
	return nil
}
