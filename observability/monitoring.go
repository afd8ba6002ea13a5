package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// ProcessStats is the last sample taken of the running process.
type ProcessStats struct {
	RSSBytes   uint64    `json:"rss_bytes"`
	CPUPercent float64   `json:"cpu_percent"`
	Status     string    `json:"status"`
	SampledAt  time.Time `json:"sampled_at"`
}

// MonitoringStats aggregates everything exposed by the healthcheck.
type MonitoringStats struct {
	// --- TRADES ---
	InvitationsSent    uint64 `json:"invitations_sent"`
	InvitationsExpired uint64 `json:"invitations_expired"`
	SessionsOpened     uint64 `json:"sessions_opened"`
	SessionsCancelled  uint64 `json:"sessions_cancelled"`
	SessionsAbandoned  uint64 `json:"sessions_abandoned"`
	OfferUpdates       uint64 `json:"offer_updates"`
	Settlements        uint64 `json:"settlements"`
	ItemsTransferred   uint64 `json:"items_transferred"`
	ItemsSkipped       uint64 `json:"items_skipped"`
	Evolutions         uint64 `json:"evolutions"`

	// --- PIPELINE ---
	ActiveSessions    int    `json:"active_sessions"`
	CommandQueueSize  int    `json:"command_queue_size"`
	CommandQueueCap   int    `json:"command_queue_cap"`
	EventQueueSize    int    `json:"event_queue_size"`
	EventQueueCap     int    `json:"event_queue_cap"`
	DroppedEvents     uint64 `json:"dropped_events"`
	SinkFailures      uint64 `json:"sink_failures"`
	RejectedCommands  uint64 `json:"rejected_commands"`
	ProcessedCommands uint64 `json:"processed_commands"`

	// --- SYSTEM ---
	Process    ProcessStats `json:"process"`
	AllocMemMb uint64       `json:"alloc_mem_mb"`
	NumGC      uint32       `json:"num_gc"`
}

// MonitoringManager collects counters from the event pipeline and samples
// pushed by the telemetry worker.
type MonitoringManager struct {
	log *slog.Logger
	mu  sync.RWMutex

	process          ProcessStats
	activeSessions   int
	commandQueueSize int
	commandQueueCap  int
	eventQueueSize   int
	eventQueueCap    int

	invitationsSent    uint64
	invitationsExpired uint64
	sessionsOpened     uint64
	sessionsCancelled  uint64
	sessionsAbandoned  uint64
	offerUpdates       uint64
	settlements        uint64
	itemsTransferred   uint64
	itemsSkipped       uint64
	evolutions         uint64
	droppedEvents      uint64
	sinkFailures       uint64
	rejectedCommands   uint64
	processedCommands  uint64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log}
}

func (mm *MonitoringManager) IncrInvitationsSent()    { atomic.AddUint64(&mm.invitationsSent, 1) }
func (mm *MonitoringManager) IncrInvitationsExpired() { atomic.AddUint64(&mm.invitationsExpired, 1) }
func (mm *MonitoringManager) IncrSessionsOpened()     { atomic.AddUint64(&mm.sessionsOpened, 1) }
func (mm *MonitoringManager) IncrSessionsCancelled()  { atomic.AddUint64(&mm.sessionsCancelled, 1) }
func (mm *MonitoringManager) IncrSessionsAbandoned()  { atomic.AddUint64(&mm.sessionsAbandoned, 1) }
func (mm *MonitoringManager) IncrOfferUpdates()       { atomic.AddUint64(&mm.offerUpdates, 1) }
func (mm *MonitoringManager) IncrEvolutions()         { atomic.AddUint64(&mm.evolutions, 1) }
func (mm *MonitoringManager) IncrDroppedEvents()      { atomic.AddUint64(&mm.droppedEvents, 1) }
func (mm *MonitoringManager) IncrSinkFailures()       { atomic.AddUint64(&mm.sinkFailures, 1) }

// IncrCommands counts a command handled by a worker, split by outcome.
func (mm *MonitoringManager) IncrCommands(rejected bool) {
	if rejected {
		atomic.AddUint64(&mm.rejectedCommands, 1)
		return
	}
	atomic.AddUint64(&mm.processedCommands, 1)
}

// RecordSettlement counts one settlement and its items.
func (mm *MonitoringManager) RecordSettlement(transferred, skipped int) {
	atomic.AddUint64(&mm.settlements, 1)
	atomic.AddUint64(&mm.itemsTransferred, uint64(transferred))
	atomic.AddUint64(&mm.itemsSkipped, uint64(skipped))
}

// RecordProcess stores the latest self sample of the process.
func (mm *MonitoringManager) RecordProcess(p ProcessStats) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.process = p
}

// UpdateQueues stores the pipeline gauges.
func (mm *MonitoringManager) UpdateQueues(activeSessions, commandLen, commandCap, eventLen, eventCap int) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.activeSessions = activeSessions
	mm.commandQueueSize = commandLen
	mm.commandQueueCap = commandCap
	mm.eventQueueSize = eventLen
	mm.eventQueueCap = eventCap
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return MonitoringStats{
		InvitationsSent:    atomic.LoadUint64(&mm.invitationsSent),
		InvitationsExpired: atomic.LoadUint64(&mm.invitationsExpired),
		SessionsOpened:     atomic.LoadUint64(&mm.sessionsOpened),
		SessionsCancelled:  atomic.LoadUint64(&mm.sessionsCancelled),
		SessionsAbandoned:  atomic.LoadUint64(&mm.sessionsAbandoned),
		OfferUpdates:       atomic.LoadUint64(&mm.offerUpdates),
		Settlements:        atomic.LoadUint64(&mm.settlements),
		ItemsTransferred:   atomic.LoadUint64(&mm.itemsTransferred),
		ItemsSkipped:       atomic.LoadUint64(&mm.itemsSkipped),
		Evolutions:         atomic.LoadUint64(&mm.evolutions),
		ActiveSessions:     mm.activeSessions,
		CommandQueueSize:   mm.commandQueueSize,
		CommandQueueCap:    mm.commandQueueCap,
		EventQueueSize:     mm.eventQueueSize,
		EventQueueCap:      mm.eventQueueCap,
		DroppedEvents:      atomic.LoadUint64(&mm.droppedEvents),
		SinkFailures:       atomic.LoadUint64(&mm.sinkFailures),
		RejectedCommands:   atomic.LoadUint64(&mm.rejectedCommands),
		ProcessedCommands:  atomic.LoadUint64(&mm.processedCommands),
		Process:            mm.process,
		AllocMemMb:         m.Alloc / 1024 / 1024,
		NumGC:              m.NumGC,
	}
}
