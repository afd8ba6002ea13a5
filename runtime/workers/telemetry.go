package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"trade-lab/contract"
	"trade-lab/observability"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// Gauges is a point-in-time reading of the trading pipeline.
type Gauges struct {
	ActiveSessions int
	CommandLen     int
	CommandCap     int
	EventLen       int
	EventCap       int
}

// TelemetryWorker samples the process and the pipeline gauges into the monitoring manager.
type TelemetryWorker struct {
	log        *slog.Logger
	interval   time.Duration
	monitoring *observability.MonitoringManager
	gauges     func() Gauges
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration,
	monitoring *observability.MonitoringManager, gauges func() Gauges) *TelemetryWorker {
	return &TelemetryWorker{
		log:        log,
		interval:   interval,
		monitoring: monitoring,
		gauges:     gauges,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			w.Sample(p)
		}
	}
}

// Sample takes one reading. Process stats are skipped when the OS refuses them.
func (w *TelemetryWorker) Sample(p *process.Process) {
	g := w.gauges()
	w.monitoring.UpdateQueues(g.ActiveSessions, g.CommandLen, g.CommandCap, g.EventLen, g.EventCap)

	stats, err := selfStats(p)
	if err != nil {
		w.log.Debug("Failed to collect self stats", "err", err)
		return
	}
	w.monitoring.RecordProcess(stats)
}

// selfStats retrieves memory, CPU and OS status for the given process.
func selfStats(p *process.Process) (observability.ProcessStats, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return observability.ProcessStats{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return observability.ProcessStats{}, err
	}
	status, err := p.Status()
	if err != nil {
		return observability.ProcessStats{}, err
	}
	return observability.ProcessStats{
		RSSBytes:   memInfo.RSS,
		CPUPercent: cpuPercent,
		Status:     status,
		SampledAt:  time.Now().UTC(),
	}, nil
}
