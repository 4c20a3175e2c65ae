// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/hypertube/internal/app/system/cache"
	"github.com/dalemusser/hypertube/internal/app/system/indexes"
	"github.com/dalemusser/hypertube/internal/app/system/timeouts"
	"github.com/dalemusser/hypertube/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client (and Redis when configured) and
// verifies both with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, appCfg.TimeoutPing)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize),
		zap.Uint64("min_pool", appCfg.MongoMinPoolSize))

	deps := DBDeps{
		HypertubeMongoClient:   client,
		HypertubeMongoDatabase: client.Database(appCfg.MongoDatabase),
		Background:             &Background{},
	}

	if appCfg.RedisAddr == "" {
		logger.Info("library cache disabled (no redis_addr)")
		return deps, nil
	}

	redisCtx, cancelRedis := context.WithTimeout(ctx, appCfg.TimeoutPing)
	defer cancelRedis()
	rdb, err := cache.Dial(redisCtx, appCfg.RedisAddr, appCfg.RedisPassword, appCfg.RedisDB)
	if err != nil {
		// The cache is optional; run without it rather than refuse to start.
		logger.Warn("redis unavailable, library cache disabled", zap.Error(err))
		return deps, nil
	}
	logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
	deps.Redis = rdb
	return deps, nil
}

// EnsureSchema installs collection validators and indexes.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.HypertubeMongoDatabase

	vctx, cancel := timeouts.WithTimeout(ctx, appCfg.TimeoutMedium, logger, "ensure validators")
	defer cancel()
	if err := validators.EnsureAll(vctx, db); err != nil {
		return fmt.Errorf("ensure validators: %w", err)
	}

	ictx, cancelIdx := timeouts.WithTimeout(ctx, appCfg.TimeoutMedium, logger, "ensure indexes")
	defer cancelIdx()
	if err := indexes.EnsureAll(ictx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	logger.Info("schema ensured", zap.String("database", db.Name()))
	return nil
}
