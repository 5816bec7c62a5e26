package workers

import (
	"context"
	"groupchat/errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) Sweep() (int, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestSweeperWorker_Sweeps_Until_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	registry := &countingSweeper{}
	worker := NewSweeperWorker(logs.GetLoggerFromLevel(slog.LevelDebug), registry, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	req.Eventually(func() bool { return registry.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	req.NoError(<-done)
}

func TestSweeperWorker_Returns_Storage_Error(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	registry := &countingSweeper{err: errors.ErrStorage}
	worker := NewSweeperWorker(logs.GetLoggerFromLevel(slog.LevelDebug), registry, 10*time.Millisecond)

	err := worker.Run(context.Background())
	req.ErrorIs(err, errors.ErrStorage)
	req.Equal(int32(1), registry.calls.Load())
}
