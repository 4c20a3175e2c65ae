// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"os"

	userstore "github.com/dalemusser/hypertube/internal/app/store/users"
	"github.com/dalemusser/hypertube/internal/app/system/imagefile"
	"github.com/dalemusser/hypertube/internal/app/system/timeouts"
	"github.com/dalemusser/hypertube/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.TimeoutPing,
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
	})

	if err := os.MkdirAll(appCfg.ProfileImagesDir, 0o755); err != nil {
		return fmt.Errorf("create profile image dir: %w", err)
	}

	if appCfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         appCfg.SentryDSN,
			Environment: coreCfg.Env,
		}); err != nil {
			// Reporting is optional; keep serving without it.
			logger.Error("sentry init failed", zap.Error(err))
		} else {
			logger.Info("sentry error reporting enabled", zap.String("env", coreCfg.Env))
		}
	}

	if appCfg.ImageSweepInterval > 0 {
		images := imagefile.New(appCfg.ProfileImagesDir, appCfg.ProfileImageMaxBytes, appCfg.ProfileThumbWidth, logger)
		sweeper := workers.NewImageSweeper(images, userstore.New(deps.HypertubeMongoDatabase), logger,
			appCfg.ImageSweepInterval, appCfg.ImageSweepGrace)
		sweeper.Start()
		deps.Background.setSweeper(sweeper)
	}

	logger.Info("hypertube startup complete",
		zap.String("profile_images_dir", appCfg.ProfileImagesDir),
		zap.Bool("library_cache", deps.Redis != nil))
	return nil
}
