// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level, and request timeouts. AppConfig is where
// everything specific to Vibess lives.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// DayTimezone is the IANA timezone used for the daily group-creation
	// limit's calendar-day boundary (e.g., "America/Chicago").
	DayTimezone string

	// SweepInterval is how often the expiry sweep worker scans for
	// lapsed groups.
	SweepInterval time.Duration

	// SiteName and BaseURL appear in outbound email (waitlist
	// notifications).
	SiteName string
	BaseURL  string

	// AdminEmail promotes (or creates) the admin account on startup.
	AdminEmail string
}
