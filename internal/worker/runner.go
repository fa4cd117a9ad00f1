package worker

import (
	"context"
	"log/slog"
	"time"
)

type Poller interface {
	Poll(ctx context.Context) error
}

// Runner drives the scheduler on a fixed interval. The loop outlives any
// single job failure: errors are logged and the next tick polls again.
type Runner struct {
	poller   Poller
	interval time.Duration
}

func NewRunner(p Poller, interval time.Duration) *Runner {
	return &Runner{poller: p, interval: interval}
}

// Start blocks until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	slog.Info("worker loop started", "interval", r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker loop stopped")
			return
		case <-ticker.C:
			r.pollOnce(ctx)
		}
	}
}

func (r *Runner) pollOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("poll panicked", "panic", rec)
		}
	}()
	if err := r.poller.Poll(ctx); err != nil {
		slog.Error("poll failed", "error", err)
	}
}
