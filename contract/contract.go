//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"trade-lab/domain"
	"trade-lab/domain/event"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// AssetLedger is the persistence boundary of the trading core.
// Each call is atomic on its own; the core never spans a transaction over two calls.
type AssetLedger interface {
	GetBalance(ctx context.Context, actor domain.ActorID) (int64, error)
	AdjustBalance(ctx context.Context, actor domain.ActorID, delta int64) error
	// TransferCurrency debits from and credits to in one step.
	TransferCurrency(ctx context.Context, from, to domain.ActorID, amount int64) error
	GetAssetAt(ctx context.Context, actor domain.ActorID, index int) (domain.Asset, error)
	// LocateAsset resolves an asset reference to its record and current position.
	LocateAsset(ctx context.Context, actor domain.ActorID, assetID uuid.UUID) (domain.Asset, int, error)
	// TransferAsset moves the asset to the end of the receiver's collection with the
	// mutation applied and returns the record as stored for the receiver.
	TransferAsset(ctx context.Context, from, to domain.ActorID, assetID uuid.UUID, mutation domain.AssetMutation) (domain.Asset, error)
	GetActiveIndex(ctx context.Context, actor domain.ActorID) (int, error)
	SetActiveIndex(ctx context.Context, actor domain.ActorID, index int) error
}

// Display renders trades and delivers notices to actors. Fire and forget.
type Display interface {
	Render(view domain.SessionView)
	Notify(actor domain.ActorID, message string)
}

type EventPublisher interface {
	Publish(ctx context.Context, e event.DomainEvent)
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Settler executes a session that reached the Settling state.
// The caller holds the session lock.
type Settler interface {
	Settle(ctx context.Context, session *domain.Session) domain.SettlementReceipt
}

type IRegistry interface {
	TryOpen(a, b domain.ActorID, channel domain.ChannelID) (*domain.Session, error)
	Get(actor domain.ActorID) (*domain.Session, bool)
	Close(session *domain.Session)
	Count() int
}

// CommandHandler applies an actor's command to the trade they are in.
type CommandHandler interface {
	Handle(ctx context.Context, cmd domain.Command) (domain.Outcome, error)
}
