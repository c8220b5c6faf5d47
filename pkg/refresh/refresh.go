// Package refresh runs fire-and-forget cache reloads. A trigger returns
// immediately; the reload runs on its own goroutine, logs its outcome and
// never propagates failure back to the trigger site. Concurrent reloads of
// the same cache are not serialized: the last Replace to land wins.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner owns the detached reload goroutines for one process.
type Runner struct {
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner creates a Runner whose reloads are bounded by the given timeout.
func NewRunner(logger *slog.Logger, timeout time.Duration) *Runner {
	return &Runner{
		logger:  logger.With("component", "refresh"),
		timeout: timeout,
	}
}

// Trigger starts a detached reload of the named cache. The load function runs
// with a fresh context bounded by the runner's timeout, so an in-flight reload
// is never tied to the lifetime of the request that triggered it. There is no
// way to cancel a reload once started.
func (r *Runner) Trigger(name string, load func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		start := time.Now()
		if err := load(ctx); err != nil {
			r.logger.Error("Cache refresh failed", "cache", name, "error", err)
			return
		}
		r.logger.Info("Cache refresh completed",
			"cache", name,
			"duration_ms", float64(time.Since(start).Nanoseconds())/1e6,
		)
	}()
}

// Wait blocks until every reload triggered so far has finished. Foreground
// code never needs this; it exists for tests and for draining at shutdown.
func (r *Runner) Wait() {
	r.wg.Wait()
}
