package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fixedCounter int

func (c fixedCounter) Count() int { return int(c) }

type fixedRestarts map[string]int64

func (r fixedRestarts) Restarts() map[string]int64 { return r }

func TestHeartbeatWorker_Samples_Own_Process(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	worker := NewHeartbeatWorker(log, fixedCounter(3), fixedRestarts{"sweeper": 2}, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	req.Eventually(func() bool {
		return !worker.Latest().SampledAt.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	stats := worker.Latest()
	req.Equal(3, stats.Connections)
	req.NotZero(stats.RSSBytes)
	req.Positive(stats.Goroutines)
	req.Equal(map[string]int64{"sweeper": 2}, stats.Restarts)

	cancel()
	req.NoError(<-done)
}
