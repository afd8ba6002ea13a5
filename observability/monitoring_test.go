package observability

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitoringManager_Counters(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mm.IncrSessionsOpened()
			mm.RecordSettlement(3, 1)
			mm.IncrCommands(i%2 == 0)
		}()
	}
	wg.Wait()

	stats := mm.GetLatest()
	req.Equal(uint64(20), stats.SessionsOpened)
	req.Equal(uint64(20), stats.Settlements)
	req.Equal(uint64(60), stats.ItemsTransferred)
	req.Equal(uint64(20), stats.ItemsSkipped)
	req.Equal(uint64(10), stats.RejectedCommands)
	req.Equal(uint64(10), stats.ProcessedCommands)
}

func TestMonitoringManager_Gauges(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug))
	at := time.Now().UTC()

	mm.RecordProcess(ProcessStats{RSSBytes: 1 << 20, CPUPercent: 2.5, Status: "R", SampledAt: at})
	mm.UpdateQueues(4, 1, 100, 7, 100)

	stats := mm.GetLatest()
	req.Equal(uint64(1<<20), stats.Process.RSSBytes)
	req.Equal("R", stats.Process.Status)
	req.Equal(4, stats.ActiveSessions)
	req.Equal(7, stats.EventQueueSize)
	req.Equal(100, stats.CommandQueueCap)
}
