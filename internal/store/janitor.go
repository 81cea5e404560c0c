package store

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Janitor purges settled rounds past the retention window. Live or unpaid
// rounds are never touched. The clock is injected so tests can drive time.
type Janitor struct {
	store     Store
	clock     quartz.Clock
	interval  time.Duration
	retention time.Duration
	logger    *log.Logger
}

func NewJanitor(s Store, clock quartz.Clock, interval, retention time.Duration, logger *log.Logger) *Janitor {
	return &Janitor{
		store:     s,
		clock:     clock,
		interval:  interval,
		retention: retention,
		logger:    logger.WithPrefix("janitor"),
	}
}

// Run sweeps until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := j.clock.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	cutoff := j.clock.Now().Add(-j.retention)
	n, err := j.store.PurgeSettled(ctx, cutoff)
	if err != nil {
		j.logger.Error("purge failed", "error", err)
		return
	}
	if n > 0 {
		j.logger.Info("purged settled rounds", "count", n, "cutoff", cutoff)
	}
}
