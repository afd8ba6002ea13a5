// Package runtime handles command intake, event propagation and the lifecycle
// of trades. It orchestrates the system without containing trading rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"trade-lab/contract"
	"trade-lab/domain"
	"trade-lab/domain/event"
	"trade-lab/errors"
	"trade-lab/observability"
	"trade-lab/runtime/workers"
)

var _ contract.EventPublisher = (*Orchestrator)(nil)

const publishWait = 50 * time.Millisecond

type Orchestrator struct {
	mu                sync.Mutex
	log               *slog.Logger
	numWorkers        int
	supervisor        contract.ISupervisor
	registry          contract.IRegistry
	handler           contract.CommandHandler
	monitoring        *observability.MonitoringManager
	permanentSinks    []contract.EventSink
	commands          chan workers.Envelope
	domainEvents      chan event.DomainEvent
	sinkTimeout       time.Duration
	telemetryInterval time.Duration
	done              chan struct{}
	stopOnce          sync.Once
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry contract.IRegistry,
	monitoring *observability.MonitoringManager, numWorkers, bufferSize int,
	sinkTimeout, telemetryInterval time.Duration) *Orchestrator {
	return &Orchestrator{
		log:               log,
		numWorkers:        numWorkers,
		supervisor:        supervisor,
		registry:          registry,
		monitoring:        monitoring,
		commands:          make(chan workers.Envelope, bufferSize),
		domainEvents:      make(chan event.DomainEvent, bufferSize),
		sinkTimeout:       sinkTimeout,
		telemetryInterval: telemetryInterval,
		done:              make(chan struct{}),
	}
}

// Route sets the handler the command workers apply commands with. It must be
// called before Start.
func (o *Orchestrator) Route(handler contract.CommandHandler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handler = handler
}

func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Submit queues cmd for the worker pool and waits for its outcome.
func (o *Orchestrator) Submit(ctx context.Context, cmd domain.Command) (domain.Outcome, error) {
	reply := make(chan workers.Reply, 1)
	env := workers.Envelope{Ctx: ctx, Command: cmd, Reply: reply}

	select {
	case <-o.done:
		return domain.Outcome{}, errors.ErrOrchestratorStopped
	case <-ctx.Done():
		return domain.Outcome{}, ctx.Err()
	case o.commands <- env:
	}

	select {
	case r := <-reply:
		return r.Outcome, r.Err
	case <-o.done:
		return domain.Outcome{}, errors.ErrOrchestratorStopped
	case <-ctx.Done():
		return domain.Outcome{}, ctx.Err()
	}
}

// Publish waits at most publishWait for room in the event buffer, then drops
// and counts the event.
func (o *Orchestrator) Publish(ctx context.Context, e event.DomainEvent) {
	select {
	case o.domainEvents <- e:
		return
	default:
	}

	timer := time.NewTimer(publishWait)
	defer timer.Stop()
	select {
	case o.domainEvents <- e:
	case <-timer.C:
		o.drop(e)
	case <-ctx.Done():
		o.drop(e)
	case <-o.done:
		o.drop(e)
	}
}

func (o *Orchestrator) drop(e event.DomainEvent) {
	o.monitoring.IncrDroppedEvents()
	o.log.Warn("Event channel full, dropping event", "type", e.Type())
}

// Start prepares the workers and runs them under the supervisor until ctx is
// canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	// Preparation phase, no lock
	o.mu.Lock()
	handler := o.handler
	sinks := append([]contract.EventSink(nil), o.permanentSinks...)
	o.mu.Unlock()
	if handler == nil {
		return fmt.Errorf("no command handler routed to the orchestrator")
	}

	poolWorkers := o.preparePoolWorkers(handler)
	fanoutWorker := workers.NewEventFanout(o.log, o.domainEvents, sinks, o.sinkTimeout, o.monitoring)
	telemetryWorker := workers.NewTelemetryWorker(o.log, o.telemetryInterval, o.monitoring, o.gauges)

	o.supervisor.Add(fanoutWorker, telemetryWorker)
	o.supervisor.Add(poolWorkers...)

	o.log.Info("Starting orchestrator and all supervised workers",
		"command_workers", o.numWorkers, "sinks", len(sinks))
	o.supervisor.Run(ctx)
	o.markDone()
	return nil
}

func (o *Orchestrator) preparePoolWorkers(handler contract.CommandHandler) []contract.Worker {
	var res []contract.Worker
	for i := 0; i < o.numWorkers; i++ {
		res = append(res, workers.NewPoolUnitWorker(handler, o.commands, o.monitoring, o.log))
	}
	return res
}

func (o *Orchestrator) gauges() workers.Gauges {
	return workers.Gauges{
		ActiveSessions: o.registry.Count(),
		CommandLen:     len(o.commands),
		CommandCap:     cap(o.commands),
		EventLen:       len(o.domainEvents),
		EventCap:       cap(o.domainEvents),
	}
}

// Stop initiates a graceful shutdown. Pending Submit calls return
// ErrOrchestratorStopped.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
	o.markDone()
}

func (o *Orchestrator) markDone() {
	o.stopOnce.Do(func() { close(o.done) })
}
