package workers

import (
	"context"
	"fmt"
	"groupchat/contract"
	"groupchat/errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultMinBackoff = 200 * time.Millisecond
	DefaultMaxBackoff = 10 * time.Second
)

type supervised struct {
	name     string
	worker   contract.Worker
	restarts atomic.Int64
}

// Supervisor keeps the background workers of the chat server alive.
// A worker that fails or panics is restarted after a backoff doubling from
// minBackoff up to maxBackoff. A run that lasted longer than maxBackoff
// resets the backoff. A nil return ends the worker for good.
type Supervisor struct {
	log        *slog.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
	workers    []*supervised
	wg         sync.WaitGroup
}

func NewSupervisor(log *slog.Logger, minBackoff, maxBackoff time.Duration) *Supervisor {
	if minBackoff <= 0 {
		minBackoff = DefaultMinBackoff
	}
	if maxBackoff < minBackoff {
		maxBackoff = max(minBackoff, DefaultMaxBackoff)
	}
	return &Supervisor{log: log, minBackoff: minBackoff, maxBackoff: maxBackoff}
}

// Add registers a named worker. It must be called before Run.
func (s *Supervisor) Add(name string, worker contract.Worker) *Supervisor {
	s.workers = append(s.workers, &supervised{name: name, worker: worker})
	return s
}

// Run starts every worker and blocks until all of them are done.
// Cancelling ctx stops them.
func (s *Supervisor) Run(ctx context.Context) {
	for _, w := range s.workers {
		s.wg.Add(1)
		go s.supervise(ctx, w)
	}
	s.wg.Wait()
}

// Restarts reports how many times each worker was restarted.
func (s *Supervisor) Restarts() map[string]int64 {
	restarts := make(map[string]int64, len(s.workers))
	for _, w := range s.workers {
		restarts[w.name] = w.restarts.Load()
	}
	return restarts
}

func (s *Supervisor) supervise(ctx context.Context, w *supervised) {
	defer s.wg.Done()
	backoff := s.minBackoff

	for {
		started := time.Now()
		err := runGuarded(ctx, w.worker)
		switch {
		case err == nil:
			s.log.Info("Worker finished", "name", w.name)
			return
		case ctx.Err() != nil:
			s.log.Info("Worker stopped", "name", w.name)
			return
		}

		if time.Since(started) > s.maxBackoff {
			backoff = s.minBackoff
		}
		w.restarts.Add(1)
		s.log.Warn("Worker crashed, restarting", "name", w.name, "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, s.maxBackoff)
	}
}

func runGuarded(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}
