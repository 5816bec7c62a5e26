package workers

import (
	"context"
	"log/slog"
	"os"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

const DefaultHeartbeatInterval = 5 * time.Second

// HealthStats is the latest sample of the server process.
type HealthStats struct {
	Connections int       `json:"connections"`
	Goroutines  int       `json:"goroutines"`
	RSSBytes    uint64    `json:"rss_bytes"`
	CPUPercent  float64   `json:"cpu_percent"`
	Status      string    `json:"status"`
	SampledAt   time.Time `json:"sampled_at"`
	// Restarts counts supervised restarts per worker name.
	Restarts map[string]int64 `json:"restarts,omitempty"`
}

// ConnectionCounter is satisfied by the hub.
type ConnectionCounter interface {
	Count() int
}

// RestartCounter is satisfied by the supervisor.
type RestartCounter interface {
	Restarts() map[string]int64
}

// HeartbeatWorker samples memory, CPU and status of its own process every
// interval and keeps the latest value for the health endpoint.
type HeartbeatWorker struct {
	mu       sync.RWMutex
	log      *slog.Logger
	counter  ConnectionCounter
	restarts RestartCounter
	interval time.Duration
	latest   HealthStats
}

// NewHeartbeatWorker accepts a nil restarts counter.
func NewHeartbeatWorker(log *slog.Logger, counter ConnectionCounter, restarts RestartCounter,
	interval time.Duration) *HeartbeatWorker {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &HeartbeatWorker{log: log, counter: counter, restarts: restarts, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	w.sample(p)

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping heartbeat")
			return nil
		case <-ticker.C:
			w.sample(p)
		}
	}
}

// Latest returns the last sample. Connections and restarts are always read live.
func (w *HeartbeatWorker) Latest() HealthStats {
	w.mu.RLock()
	stats := w.latest
	w.mu.RUnlock()
	stats.Connections = w.counter.Count()
	stats.Goroutines = goruntime.NumGoroutine()
	if w.restarts != nil {
		stats.Restarts = w.restarts.Restarts()
	}
	return stats
}

func (w *HeartbeatWorker) sample(p *process.Process) {
	rss, cpu, status, err := getSelfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "error", err)
		return
	}
	w.mu.Lock()
	w.latest = HealthStats{RSSBytes: rss, CPUPercent: cpu, Status: status, SampledAt: time.Now()}
	w.mu.Unlock()
}

// getSelfStats retrieves memory, CPU and OS status for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
