// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"sync"

	"github.com/dalemusser/hypertube/internal/app/system/ratelimit"
	"github.com/dalemusser/hypertube/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	HypertubeMongoClient   *mongo.Client
	HypertubeMongoDatabase *mongo.Database

	// Redis is nil when the library cache is disabled.
	Redis *redis.Client

	// Background holds long-running helpers started by Startup and
	// BuildHandler and stopped by Shutdown.
	Background *Background
}

// Background tracks goroutine-owning components.
type Background struct {
	mu           sync.Mutex
	sweeper      *workers.ImageSweeper
	writeLimiter *ratelimit.Limiter
}

func (b *Background) setSweeper(w *workers.ImageSweeper) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweeper = w
}

func (b *Background) setWriteLimiter(l *ratelimit.Limiter) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeLimiter = l
}

// Stop stops everything registered. Safe on a nil Background.
func (b *Background) Stop() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sweeper != nil {
		b.sweeper.Stop()
		b.sweeper = nil
	}
	if b.writeLimiter != nil {
		b.writeLimiter.Stop()
		b.writeLimiter = nil
	}
}
