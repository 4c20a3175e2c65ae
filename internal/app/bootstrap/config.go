// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/hypertube/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Hypertube.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: HYPERTUBE_MONGO_URI, HYPERTUBE_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "hypertube", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "hypertube-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	// Bearer credentials
	{Name: "jwt_secret", Default: "", Desc: "Secret used to sign and verify bearer tokens (required)"},
	{Name: "jwt_header", Default: "x-auth-token", Desc: "Legacy request header carrying a bearer token"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Lifetime of issued bearer tokens"},

	// Profile images
	{Name: "profile_images_dir", Default: "./uploads/profile-images", Desc: "Directory for uploaded profile images"},
	{Name: "profile_image_max_bytes", Default: 2000000, Desc: "Maximum profile image size in bytes"},
	{Name: "profile_thumb_width", Default: 128, Desc: "Profile thumbnail width in pixels (0 disables thumbnails)"},

	// Library cache
	{Name: "redis_addr", Default: "", Desc: "Redis address for the library cache (blank disables it)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "library_cache_ttl", Default: "10m", Desc: "How long library lookups stay cached"},

	// Audit logging
	{Name: "audit_log_account", Default: "all", Desc: "Profile/password/image audit events: all, db, log, or off"},
	{Name: "audit_log_auth", Default: "all", Desc: "Logout and rate-limit audit events: all, db, log, or off"},

	// Write throttling
	{Name: "write_rate_limit", Default: 20, Desc: "Max profile updates and image uploads per user per window (0 disables)"},
	{Name: "write_rate_window", Default: "1m", Desc: "Window for write_rate_limit"},

	// Orphaned image sweeper
	{Name: "image_sweep_interval", Default: "1h", Desc: "How often unreferenced profile images are removed (0 disables)"},
	{Name: "image_sweep_grace", Default: "15m", Desc: "Minimum age of a profile image before the sweeper may remove it"},

	// Error reporting
	{Name: "sentry_dsn", Default: "", Desc: "Sentry DSN (blank disables error reporting)"},

	// Store timeouts
	{Name: "timeout_ping", Default: "2s", Desc: "Timeout for health-check pings"},
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document reads and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for multi-step operations such as profile updates"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config.yaml/json/toml
// files, environment variables (WAFFLE_* for core, HYPERTUBE_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "HYPERTUBE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		JWTSecret: appValues.String("jwt_secret"),
		JWTHeader: appValues.String("jwt_header"),
		JWTTTL:    appValues.Duration("jwt_ttl", 24*time.Hour),

		ProfileImagesDir:     appValues.String("profile_images_dir"),
		ProfileImageMaxBytes: int64(appValues.Int("profile_image_max_bytes")),
		ProfileThumbWidth:    appValues.Int("profile_thumb_width"),

		RedisAddr:       appValues.String("redis_addr"),
		RedisPassword:   appValues.String("redis_password"),
		RedisDB:         appValues.Int("redis_db"),
		LibraryCacheTTL: appValues.Duration("library_cache_ttl", 10*time.Minute),

		AuditLogAccount: appValues.String("audit_log_account"),
		AuditLogAuth:    appValues.String("audit_log_auth"),

		WriteRateLimit:  appValues.Int("write_rate_limit"),
		WriteRateWindow: appValues.Duration("write_rate_window", time.Minute),

		ImageSweepInterval: appValues.Duration("image_sweep_interval", time.Hour),
		ImageSweepGrace:    appValues.Duration("image_sweep_grace", 15*time.Minute),

		SentryDSN: appValues.String("sentry_dsn"),

		TimeoutPing:   appValues.Duration("timeout_ping", 2*time.Second),
		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database must be set")
	}
	if appCfg.JWTSecret == "" {
		return errors.New("jwt_secret must be set")
	}
	if appCfg.ProfileImagesDir == "" {
		return errors.New("profile_images_dir must be set")
	}
	if appCfg.ProfileImageMaxBytes <= 0 {
		return fmt.Errorf("profile_image_max_bytes must be positive, got %d", appCfg.ProfileImageMaxBytes)
	}
	if appCfg.ProfileThumbWidth < 0 {
		return fmt.Errorf("profile_thumb_width must not be negative, got %d", appCfg.ProfileThumbWidth)
	}
	for key, v := range map[string]string{
		"audit_log_account": appCfg.AuditLogAccount,
		"audit_log_auth":    appCfg.AuditLogAuth,
	} {
		if !auditlog.ValidDest(v) {
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", key, v)
		}
	}
	if appCfg.WriteRateLimit < 0 {
		return fmt.Errorf("write_rate_limit must not be negative, got %d", appCfg.WriteRateLimit)
	}
	if appCfg.WriteRateLimit > 0 && appCfg.WriteRateWindow <= 0 {
		return errors.New("write_rate_window must be positive when write_rate_limit is set")
	}
	if appCfg.ImageSweepInterval < 0 || appCfg.ImageSweepGrace < 0 {
		return errors.New("image_sweep_interval and image_sweep_grace must not be negative")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	return nil
}
