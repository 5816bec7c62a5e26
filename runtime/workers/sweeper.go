package workers

import (
	"context"
	"log/slog"
	"time"
)

const DefaultSweepInterval = time.Minute

// PresenceSweeper is satisfied by the session registry.
type PresenceSweeper interface {
	Sweep() (int, error)
}

// SweeperWorker periodically clears online flags left behind by a leave
// whose store write failed.
type SweeperWorker struct {
	log      *slog.Logger
	registry PresenceSweeper
	interval time.Duration
}

func NewSweeperWorker(log *slog.Logger, registry PresenceSweeper, interval time.Duration) *SweeperWorker {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SweeperWorker{log: log, registry: registry, interval: interval}
}

// Run returns the first sweep error so the supervisor backs off and retries.
func (w *SweeperWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cleared, err := w.registry.Sweep()
			if err != nil {
				return err
			}
			if cleared > 0 {
				w.log.Warn("Stale online flags cleared", "count", cleared)
			}
		}
	}
}
