// Package besteffort runs side effects whose failure must be logged but never
// reach the caller: admin notifications, event publishing, webhook writes.
package besteffort

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner executes best-effort operations.
type Runner struct {
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func New(logger *zap.Logger, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Runner{logger: logger, timeout: timeout}
}

// Do runs fn inline. Errors and panics are logged and swallowed.
// It reports whether fn succeeded.
func (r *Runner) Do(ctx context.Context, name string, fn func(ctx context.Context) error) (ok bool) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Best-effort operation panicked",
				zap.String("op", name),
				zap.String("panic", fmt.Sprint(rec)),
			)
			ok = false
		}
	}()

	if err := fn(ctx); err != nil {
		r.logger.Warn("Best-effort operation failed",
			zap.String("op", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Go runs fn in the background, detached from the caller's cancellation and
// bounded by the runner timeout.
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	detached := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()
		r.Do(ctx, name, fn)
	}()
}

// Wait blocks until every operation started with Go has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}
