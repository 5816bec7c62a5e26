package workers

import (
	"context"
	"groupchat/errors"
	"groupchat/mocks"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestSupervisor_Restarts_Panicking_Worker_With_Backoff(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)

	var mu sync.Mutex
	var starts []time.Time
	worker.EXPECT().Run(gomock.Any()).DoAndReturn(func(context.Context) error {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		panic("boom")
	}).AnyTimes()

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 20*time.Millisecond, time.Second)
	sup.Add("flaky", worker)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	sup.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	// 0, 20, 60, 140 ms: the gaps double
	req.GreaterOrEqual(len(starts), 3)
	req.LessOrEqual(len(starts), 5)
	req.Greater(starts[2].Sub(starts[1]), starts[1].Sub(starts[0]))
	req.Equal(int64(len(starts)), sup.Restarts()["flaky"])
}

func TestSupervisor_Worker_Returning_Nil_Is_Not_Restarted(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)

	// Given a worker running only once
	worker.EXPECT().Run(gomock.Any()).Return(nil).Times(1)

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 0, 0)
	done := make(chan struct{})
	go func() {
		sup.Add("once", worker).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		req.Equal(map[string]int64{"once": 0}, sup.Restarts())
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after worker success")
	}
}

func TestSupervisor_Failing_Worker_Does_Not_Stop_Others(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	ctrl := gomock.NewController(t)
	failing, steady := mocks.NewMockWorker(ctrl), mocks.NewMockWorker(ctrl)

	var steadyRuns atomic.Int32
	failing.EXPECT().Run(gomock.Any()).Return(errors.ErrStorage).AnyTimes()
	steady.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		steadyRuns.Add(1)
		<-ctx.Done()
		return nil
	}).Times(1)

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 10*time.Millisecond, 40*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	sup.Add("failing", failing).Add("steady", steady).Run(ctx)

	req.Equal(int32(1), steadyRuns.Load())
	req.Zero(sup.Restarts()["steady"])
	req.GreaterOrEqual(sup.Restarts()["failing"], int64(3))
}
