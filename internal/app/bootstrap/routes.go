// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/hypertube/internal/app/features/errors"
	healthfeature "github.com/dalemusser/hypertube/internal/app/features/health"
	libraryfeature "github.com/dalemusser/hypertube/internal/app/features/library"
	logoutfeature "github.com/dalemusser/hypertube/internal/app/features/logout"
	usersfeature "github.com/dalemusser/hypertube/internal/app/features/users"
	"github.com/dalemusser/hypertube/internal/app/store/audit"
	userstore "github.com/dalemusser/hypertube/internal/app/store/users"
	"github.com/dalemusser/hypertube/internal/app/system/auditlog"
	"github.com/dalemusser/hypertube/internal/app/system/auth"
	"github.com/dalemusser/hypertube/internal/app/system/cache"
	"github.com/dalemusser/hypertube/internal/app/system/imagefile"
	"github.com/dalemusser/hypertube/internal/app/system/ratelimit"
	"github.com/dalemusser/hypertube/internal/app/system/requestlog"
	"github.com/dalemusser/waffle/config"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// Every request passes through request IDs, access logging, panic recovery
// and credential loading (session cookie, then bearer token). Feature
// routers apply RequireSignedIn themselves.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	tokens, err := auth.NewTokenVerifier(appCfg.JWTSecret, appCfg.JWTHeader, appCfg.JWTTTL)
	if err != nil {
		logger.Error("token verifier init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetTokenVerifier(tokens)

	// Re-read the user on every request so a deleted account stops
	// authenticating immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.HypertubeMongoDatabase))

	errLog := errorsfeature.NewErrorLogger(logger)
	images := imagefile.New(appCfg.ProfileImagesDir, appCfg.ProfileImageMaxBytes, appCfg.ProfileThumbWidth, logger)
	libraryCache := cache.New(deps.Redis, "hypertube:library:", appCfg.LibraryCacheTTL)
	auditLog := auditlog.New(audit.New(deps.HypertubeMongoDatabase), logger, auditlog.Config{
		Account: appCfg.AuditLogAccount,
		Auth:    appCfg.AuditLogAuth,
	})

	r := chi.NewRouter()
	r.Use(requestlog.Middleware(logger)...)
	if appCfg.SentryDSN != "" {
		// Report panics, then re-panic into the recoverer for the 500.
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.HypertubeMongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api", func(api chi.Router) {
		usersHandler := usersfeature.NewHandler(deps.HypertubeMongoDatabase, images, auditLog, errLog, logger)
		if appCfg.WriteRateLimit > 0 {
			usersHandler.WriteLimiter = ratelimit.New(appCfg.WriteRateLimit, appCfg.WriteRateWindow)
			deps.Background.setWriteLimiter(usersHandler.WriteLimiter)
		}
		api.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

		libraryHandler := libraryfeature.NewHandler(deps.HypertubeMongoDatabase, libraryCache, errLog, logger)
		api.Mount("/library", libraryfeature.Routes(libraryHandler, sessionMgr))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
		api.Mount("/auth", logoutfeature.Routes(logoutHandler, sessionMgr))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorsfeature.JSON(w, http.StatusNotFound, errorsfeature.Response{Msg: "Not found"})
	})

	return r, nil
}
