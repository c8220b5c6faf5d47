package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	return NewRunner(slog.New(slog.DiscardHandler), time.Second)
}

func Test_Runner_Trigger_RunsLoad(t *testing.T) {
	runner := newTestRunner(t)
	var calls atomic.Int32

	runner.Trigger("inventory", func(_ context.Context) error {
		calls.Add(1)
		return nil
	})
	runner.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func Test_Runner_Trigger_SwallowsFailure(t *testing.T) {
	runner := newTestRunner(t)

	// A failing load must not panic or escape to the trigger site.
	runner.Trigger("inventory", func(_ context.Context) error {
		return errors.New("database unavailable")
	})
	runner.Wait()
}

func Test_Runner_Trigger_DoesNotBlockCaller(t *testing.T) {
	runner := newTestRunner(t)
	release := make(chan struct{})

	start := time.Now()
	runner.Trigger("orders", func(_ context.Context) error {
		<-release
		return nil
	})
	elapsed := time.Since(start)
	close(release)
	runner.Wait()

	assert.Less(t, elapsed, 100*time.Millisecond)
}

func Test_Runner_Trigger_BoundsLoadWithTimeout(t *testing.T) {
	runner := NewRunner(slog.New(slog.DiscardHandler), 10*time.Millisecond)
	done := make(chan error, 1)

	runner.Trigger("customers", func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	})
	runner.Wait()

	assert.ErrorIs(t, <-done, context.DeadlineExceeded)
}
