// internal/app/system/workers/imagesweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ImageFiles lists and removes stored profile images.
type ImageFiles interface {
	ListOlderThan(cutoff time.Time) ([]string, error)
	Remove(name string) error
}

// ImageRefs reports which image names are still referenced by a user.
type ImageRefs interface {
	ProfileImagesInUse(ctx context.Context, names []string) (map[string]bool, error)
}

// ImageSweeper is a background worker that deletes profile images no user
// references any more (replaced uploads, or files left by a failed request).
type ImageSweeper struct {
	files ImageFiles
	refs  ImageRefs
	log   *zap.Logger

	interval time.Duration
	grace    time.Duration
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewImageSweeper creates a new sweeper.
//
// Parameters:
//   - interval: how often to sweep (e.g., 1 hour)
//   - grace: minimum file age before it may be removed, so an upload whose
//     user update is still in flight is never touched
func NewImageSweeper(files ImageFiles, refs ImageRefs, logger *zap.Logger, interval, grace time.Duration) *ImageSweeper {
	return &ImageSweeper{
		files:    files,
		refs:     refs,
		log:      logger,
		interval: interval,
		grace:    grace,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *ImageSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("image sweeper started",
		zap.Duration("interval", w.interval),
		zap.Duration("grace", w.grace))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *ImageSweeper) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("image sweeper stopped")
}

func (w *ImageSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			_, _ = w.SweepOnce(ctx)
			cancel()
		}
	}
}

// SweepOnce removes unreferenced images older than the grace period and
// returns how many were removed.
func (w *ImageSweeper) SweepOnce(ctx context.Context) (int, error) {
	names, err := w.files.ListOlderThan(w.now().Add(-w.grace))
	if err != nil {
		w.log.Error("list profile images failed", zap.Error(err))
		return 0, err
	}
	if len(names) == 0 {
		return 0, nil
	}

	inUse, err := w.refs.ProfileImagesInUse(ctx, names)
	if err != nil {
		w.log.Error("load profile image references failed", zap.Error(err))
		return 0, err
	}

	removed := 0
	for _, name := range names {
		if inUse[name] {
			continue
		}
		if err := w.files.Remove(name); err != nil {
			w.log.Warn("remove orphaned profile image failed", zap.String("file", name), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		w.log.Info("removed orphaned profile images", zap.Int("count", removed))
	}
	return removed, nil
}
