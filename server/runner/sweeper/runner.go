// Package sweeper removes expired session rows and ends stale interview runs
// in the background.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/voxhire/voxhire/internal/profile"
	"github.com/voxhire/voxhire/server/monitor"
	"github.com/voxhire/voxhire/store"
)

type Runner struct {
	store      *store.Store
	registry   *monitor.Registry
	interval   time.Duration
	staleAfter time.Duration
}

// NewRunner creates a session sweeper.
func NewRunner(st *store.Store, registry *monitor.Registry, p *profile.Profile) *Runner {
	return &Runner{
		store:      st,
		registry:   registry,
		interval:   p.SweepInterval,
		staleAfter: p.StaleAfter,
	}
}

// Run starts the background task.
func (r *Runner) Run(ctx context.Context) {
	// Sweep once on startup
	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		}
	}
}

// RunOnce sweeps once (for manual trigger).
func (r *Runner) RunOnce(ctx context.Context) {
	r.sweep(ctx)
}

func (r *Runner) sweep(ctx context.Context) {
	deleted, err := r.store.DeleteExpiredSessions(ctx)
	if err != nil {
		slog.Error("failed to delete expired sessions", "error", err)
	} else if deleted > 0 {
		slog.Info("expired sessions deleted", "count", deleted)
	}

	if r.registry != nil {
		if cleaned := r.registry.CleanupStale(r.staleAfter); cleaned > 0 {
			slog.Info("stale interview runs ended", "count", cleaned)
		}
	}
}
