// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	accountsfeature "github.com/vibesslabs/vibess-server/internal/app/features/accounts"
	gpsfeature "github.com/vibesslabs/vibess-server/internal/app/features/gps"
	healthfeature "github.com/vibesslabs/vibess-server/internal/app/features/health"
	heartbeatfeature "github.com/vibesslabs/vibess-server/internal/app/features/heartbeat"
	profilefeature "github.com/vibesslabs/vibess-server/internal/app/features/profile"
	waitlistfeature "github.com/vibesslabs/vibess-server/internal/app/features/waitlist"
	gpstore "github.com/vibesslabs/vibess-server/internal/app/store/gps"
	loginstore "github.com/vibesslabs/vibess-server/internal/app/store/logins"
	messagestore "github.com/vibesslabs/vibess-server/internal/app/store/messages"
	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"github.com/vibesslabs/vibess-server/internal/app/system/auth"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE
// app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. Vibess is a JSON API: the router
// mounts the auth endpoints, the GP feature, the waitlist, the location
// heartbeat, and the health check.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	// Validated in ValidateConfig.
	dayLoc, err := time.LoadLocation(appCfg.DayTimezone)
	if err != nil {
		return nil, err
	}

	users := userstore.New(deps.MongoDatabase)
	gps := gpstore.New(deps.MongoDatabase)
	messages := messagestore.New(deps.MongoDatabase)
	logins := loginstore.New(deps.MongoDatabase)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	accountsHandler := accountsfeature.NewHandler(users, logins, logger)
	r.Mount("/api/auth", accountsfeature.Routes(accountsHandler))

	// Account profile
	profileHandler := profilefeature.NewHandler(users, logins, logger)
	r.Mount("/api/profile", profilefeature.Routes(profileHandler))

	// Location heartbeat (drives the capacity planner's active-user count)
	heartbeatHandler := heartbeatfeature.NewHandler(users, logger)
	r.Mount("/api/heartbeat", heartbeatfeature.Routes(heartbeatHandler))

	// Groups: creation pipeline, membership, messages, votes, reports
	gpsHandler := gpsfeature.NewHandler(gps, users, messages, dayLoc, logger)
	r.Mount("/api/gps", gpsfeature.Routes(gpsHandler))

	// Per-category waitlists
	waitlistHandler := waitlistfeature.NewHandler(users, logger)
	r.Mount("/api/waitlist", waitlistfeature.Routes(waitlistHandler))

	return r, nil
}
