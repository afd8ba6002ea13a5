// Package settlement applies a mutually confirmed trade to the ledger.
package settlement

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"trade-lab/contract"
	"trade-lab/domain"
	"trade-lab/domain/event"
	"trade-lab/errors"
	"trade-lab/evolution"

	"github.com/samber/lo"
)

var _ contract.Settler = (*Executor)(nil)

// Executor settles sessions item by item. A failing item is skipped and
// reported in the receipt, the rest of the trade still goes through.
type Executor struct {
	log       *slog.Logger
	ledger    contract.AssetLedger
	resolver  *evolution.Resolver
	registry  contract.IRegistry
	publisher contract.EventPublisher
	now       func() time.Time
}

func NewExecutor(log *slog.Logger, ledger contract.AssetLedger, resolver *evolution.Resolver,
	registry contract.IRegistry, publisher contract.EventPublisher) *Executor {
	return &Executor{
		log:       log,
		ledger:    ledger,
		resolver:  resolver,
		registry:  registry,
		publisher: publisher,
		now:       time.Now,
	}
}

// Settle runs once per session, while the caller holds the session lock and the
// session is Settling. Whatever happens to individual items, the session ends
// Closed and both participants are released from the registry.
func (x *Executor) Settle(ctx context.Context, s *domain.Session) domain.SettlementReceipt {
	receipt := domain.SettlementReceipt{
		SessionID:    s.ID(),
		Participants: s.Participants(),
		Transfers:    []domain.TransferRecord{},
		Skipped:      []domain.SkippedItem{},
	}
	if s.Status() != domain.SessionSettling {
		x.log.Warn("Refusing to settle a session that is not settling", "session", s.ID(), "status", s.Status())
		receipt.SettledAt = x.now().UTC()
		return receipt
	}
	defer func() {
		s.MarkSettled()
		x.registry.Close(s)
	}()

	for _, actor := range s.Participants() {
		counterpart, _ := s.Counterpart(actor)
		x.settleSide(ctx, s, actor, counterpart, &receipt)
	}
	receipt.SettledAt = x.now().UTC()

	x.log.Info("Trade settled",
		"session", s.ID(),
		"transfers", len(receipt.Transfers),
		"skipped", len(receipt.Skipped))
	return receipt
}

func (x *Executor) settleSide(ctx context.Context, s *domain.Session, actor, counterpart domain.ActorID, receipt *domain.SettlementReceipt) {
	active, activeErr := x.ledger.GetActiveIndex(ctx, actor)
	if activeErr != nil {
		activeErr = ledgerFailure(activeErr)
	}
	newActive := active
	// Positions, as offered, of the assets already moved out of the collection.
	var removed []int

	skip := func(item domain.OfferItem, err error) {
		x.log.Warn("Skipping trade item", "session", s.ID(), "actor", actor, "kind", item.Kind(), "error", err)
		receipt.Skipped = append(receipt.Skipped, domain.NewSkippedItem(actor, item, err))
	}

	for _, item := range s.Offers(actor) {
		switch it := item.(type) {
		case domain.CurrencyOffer:
			if err := x.settleCurrency(ctx, actor, counterpart, it); err != nil {
				skip(it, err)
				continue
			}
			receipt.Transfers = append(receipt.Transfers, domain.TransferRecord{
				From:   actor,
				To:     counterpart,
				Kind:   domain.OfferKindCurrency,
				Amount: it.Amount,
			})
		case domain.AssetOffer:
			if activeErr != nil {
				skip(it, activeErr)
				continue
			}
			index := it.Position - lo.CountBy(removed, func(p int) bool { return p < it.Position })
			record, err := x.settleAsset(ctx, s, actor, counterpart, it, index, newActive)
			if err != nil {
				skip(it, err)
				continue
			}
			removed = append(removed, it.Position)
			if index < newActive {
				newActive--
			}
			receipt.Transfers = append(receipt.Transfers, record)
		default:
			skip(item, fmt.Errorf("unsupported offer item %T", item))
		}
	}

	if activeErr == nil && newActive != active {
		if err := x.ledger.SetActiveIndex(ctx, actor, newActive); err != nil {
			x.log.Error("Failed to shift selected index after trade",
				"session", s.ID(), "actor", actor, "from", active, "to", newActive, "error", err)
		}
	}
}

// settleCurrency checks the live balance before the paired transfer.
func (x *Executor) settleCurrency(ctx context.Context, actor, counterpart domain.ActorID, offer domain.CurrencyOffer) error {
	balance, err := x.ledger.GetBalance(ctx, actor)
	if err != nil {
		return ledgerFailure(err)
	}
	if balance < offer.Amount {
		return errors.ErrInsufficientBalance
	}
	if err = x.ledger.TransferCurrency(ctx, actor, counterpart, offer.Amount); err != nil {
		if stderrors.Is(err, errors.ErrInsufficientBalance) {
			return err
		}
		return ledgerFailure(err)
	}
	return nil
}

// settleAsset re-resolves the offered asset at its current index, checks it is
// still the same creature and still tradable, then moves it with any side effect applied.
func (x *Executor) settleAsset(ctx context.Context, s *domain.Session, actor, counterpart domain.ActorID,
	offer domain.AssetOffer, index, active int) (domain.TransferRecord, error) {
	live, err := x.ledger.GetAssetAt(ctx, actor, index)
	switch {
	case stderrors.Is(err, errors.ErrNotFound):
		return domain.TransferRecord{}, errors.ErrStaleReference
	case err != nil:
		return domain.TransferRecord{}, ledgerFailure(err)
	case live.ID != offer.AssetID:
		return domain.TransferRecord{}, errors.ErrStaleReference
	case index == active:
		return domain.TransferRecord{}, errors.ErrAlreadySelected
	case live.Favorite:
		return domain.TransferRecord{}, errors.ErrProtected
	}

	trigger := x.resolver.Resolve(live)
	received, err := x.ledger.TransferAsset(ctx, actor, counterpart, live.ID, trigger.Mutation())
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return domain.TransferRecord{}, errors.ErrStaleReference
		}
		return domain.TransferRecord{}, ledgerFailure(err)
	}

	if trigger.Fired {
		x.publisher.Publish(ctx, event.AssetEvolved{
			SessionID:   s.ID(),
			Owner:       counterpart,
			Asset:       received,
			FromSpecies: trigger.From.Name,
			ToSpecies:   trigger.To.Name,
		})
	}

	return domain.TransferRecord{
		From:       actor,
		To:         counterpart,
		Kind:       domain.OfferKindAsset,
		AssetID:    offer.AssetID,
		NewAssetID: received.ID,
		SpeciesID:  received.SpeciesID,
		Evolved:    trigger.Fired,
	}, nil
}

func ledgerFailure(err error) error {
	return fmt.Errorf("%w: %v", errors.ErrLedgerFailure, err)
}
