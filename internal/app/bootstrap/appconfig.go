// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration; ports, TLS, log level and
// CORS live in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: hypertube-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Bearer credentials
	JWTSecret string        // HS256 signing secret
	JWTHeader string        // Legacy header carrying a raw token (default: x-auth-token)
	JWTTTL    time.Duration // Lifetime of issued tokens

	// Profile images
	ProfileImagesDir     string // Directory uploaded images are written to
	ProfileImageMaxBytes int64  // Per-upload size limit
	ProfileThumbWidth    int    // Thumbnail width in pixels; 0 disables thumbnails

	// Library read cache (blank RedisAddr disables it)
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	LibraryCacheTTL time.Duration

	// Account audit log destinations: all | db | log | off
	AuditLogAccount string
	AuditLogAuth    string

	// Per-user limit on POST /update and /image; 0 disables it
	WriteRateLimit  int
	WriteRateWindow time.Duration

	// Orphaned profile image sweeper; 0 interval disables it
	ImageSweepInterval time.Duration
	ImageSweepGrace    time.Duration

	// Error reporting (blank disables Sentry)
	SentryDSN string

	// Store timeouts
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
}
