package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"community-live/domain/event"

	"github.com/shirou/gopsutil/process"
)

// HealthMonitoringWorker samples the server process on a fixed interval and
// logs a compact health line: CPU, RSS, goroutines, heap and the fill level
// of the domain event channel. The channel depth is the early-warning signal
// for a fan-out consumer falling behind.
type HealthMonitoringWorker struct {
	log            *slog.Logger
	domainEvent    chan event.DomainEvent
	metricInterval time.Duration
}

func NewHealthMonitoringWorker(
	log *slog.Logger,
	domainEvent chan event.DomainEvent,
	metricInterval time.Duration,
) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{
		log:            log,
		domainEvent:    domainEvent,
		metricInterval: metricInterval,
	}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	self, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health sampling")
			return nil
		case <-ticker.C:
			w.sample(self)
		}
	}
}

func (w *HealthMonitoringWorker) sample(self *process.Process) {
	cpu, err := self.CPUPercent()
	if err != nil {
		w.log.Error("Error while finding process cpu usage", "err", err)
		return
	}
	ram, err := self.MemoryPercent()
	if err != nil {
		w.log.Error("Error while finding process ram usage", "err", err)
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	w.log.Info("Health sample",
		"cpu_percent", cpu,
		"ram_percent", ram,
		"goroutines", runtime.NumGoroutine(),
		"heap_alloc_bytes", mem.HeapAlloc,
		"event_queue_depth", len(w.domainEvent),
		"event_queue_capacity", cap(w.domainEvent),
	)
}
