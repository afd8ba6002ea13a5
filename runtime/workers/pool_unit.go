package workers

import (
	"context"
	"log/slog"

	"trade-lab/contract"
	"trade-lab/domain"
	"trade-lab/observability"
)

// Ensure *PoolUnitWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*PoolUnitWorker)(nil)

// Envelope carries a command to the pool and the answer back to the caller.
// Reply must be buffered so a worker never blocks on a caller that gave up.
type Envelope struct {
	Ctx     context.Context
	Command domain.Command
	Reply   chan<- Reply
}

type Reply struct {
	Outcome domain.Outcome
	Err     error
}

// PoolUnitWorker is one of the workers draining the shared command channel.
// Commands on the same session are serialized by the session lock, not by the pool.
type PoolUnitWorker struct {
	handler    contract.CommandHandler
	commands   <-chan Envelope
	monitoring *observability.MonitoringManager
	log        *slog.Logger
}

func NewPoolUnitWorker(
	handler contract.CommandHandler,
	commands <-chan Envelope,
	monitoring *observability.MonitoringManager,
	log *slog.Logger) *PoolUnitWorker {
	return &PoolUnitWorker{
		handler:    handler,
		commands:   commands,
		monitoring: monitoring,
		log:        log,
	}
}

func (w *PoolUnitWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case env, ok := <-w.commands:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			w.handle(env)
		}
	}
}

func (w *PoolUnitWorker) handle(env Envelope) {
	if err := env.Ctx.Err(); err != nil {
		w.log.Debug("Caller gave up before the command ran", "actor", env.Command.Actor())
		env.Reply <- Reply{Err: err}
		return
	}
	outcome, err := w.handler.Handle(env.Ctx, env.Command)
	w.monitoring.IncrCommands(err != nil)
	if err != nil {
		w.log.Debug("Command rejected", "actor", env.Command.Actor(), "command", commandName(env.Command), "error", err)
	}
	env.Reply <- Reply{Outcome: outcome, Err: err}
}

func commandName(cmd domain.Command) string {
	switch cmd.(type) {
	case domain.AddCurrencyCommand:
		return "add_currency"
	case domain.RemoveCurrencyCommand:
		return "remove_currency"
	case domain.AddAssetCommand:
		return "add_asset"
	case domain.RemoveAssetCommand:
		return "remove_asset"
	case domain.ToggleConfirmCommand:
		return "confirm"
	case domain.CancelCommand:
		return "cancel"
	default:
		return "unknown"
	}
}
