// Package exchange negotiates the content of a trade: who offers what, and who
// agreed to it. It never moves anything on the ledger itself.
package exchange

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"trade-lab/contract"
	"trade-lab/domain"
	"trade-lab/domain/event"
	"trade-lab/errors"

	"github.com/google/uuid"
)

var _ contract.CommandHandler = (*Engine)(nil)

type Engine struct {
	log       *slog.Logger
	ledger    contract.AssetLedger
	registry  contract.IRegistry
	settler   contract.Settler
	publisher contract.EventPublisher
}

func NewEngine(log *slog.Logger, ledger contract.AssetLedger, registry contract.IRegistry,
	settler contract.Settler, publisher contract.EventPublisher) *Engine {
	return &Engine{
		log:       log,
		ledger:    ledger,
		registry:  registry,
		settler:   settler,
		publisher: publisher,
	}
}

// Handle resolves the sender's session and applies the command to it. When
// that session closed and the sender opened another before the command got the
// lock, the command is applied to the new one.
func (e *Engine) Handle(ctx context.Context, cmd domain.Command) (domain.Outcome, error) {
	s, ok := e.registry.Get(cmd.Actor())
	if !ok {
		return domain.Outcome{}, errors.ErrNotInSession
	}
	outcome, err := e.apply(ctx, s, cmd)
	if !stderrors.Is(err, errors.ErrSessionClosed) {
		return outcome, err
	}
	if current, ok := e.registry.Get(cmd.Actor()); ok && current != s {
		return e.apply(ctx, current, cmd)
	}
	return outcome, err
}

func (e *Engine) apply(ctx context.Context, s *domain.Session, cmd domain.Command) (domain.Outcome, error) {
	var (
		view domain.SessionView
		err  error
	)
	switch c := cmd.(type) {
	case domain.AddCurrencyCommand:
		view, err = e.AddCurrency(ctx, s, c.Sender, c.Channel, c.Amount)
	case domain.RemoveCurrencyCommand:
		view, err = e.RemoveCurrency(ctx, s, c.Sender, c.Channel, c.Amount)
	case domain.AddAssetCommand:
		view, err = e.AddAsset(ctx, s, c.Sender, c.Channel, c.AssetID)
	case domain.RemoveAssetCommand:
		view, err = e.RemoveAsset(ctx, s, c.Sender, c.Channel, c.AssetID)
	case domain.ToggleConfirmCommand:
		return e.ToggleConfirm(ctx, s, c.Sender)
	case domain.CancelCommand:
		view, err = e.Cancel(ctx, s, c.Sender)
	default:
		return domain.Outcome{}, fmt.Errorf("%w: %T", errors.ErrUnknownCommand, cmd)
	}
	if err != nil {
		return domain.Outcome{}, err
	}
	return domain.Outcome{View: view}, nil
}

// AddCurrency puts coins on the actor's side. The total offered may never
// exceed what the actor owns right now.
func (e *Engine) AddCurrency(ctx context.Context, s *domain.Session, actor domain.ActorID,
	channel domain.ChannelID, amount int64) (domain.SessionView, error) {
	s.Lock()
	defer s.Unlock()

	if err := checkContext(s, actor, channel); err != nil {
		return domain.SessionView{}, err
	}
	if amount <= 0 {
		return domain.SessionView{}, errors.ErrInvalidAmount
	}
	balance, err := e.ledger.GetBalance(ctx, actor)
	if err != nil {
		return domain.SessionView{}, lookupFailure(err)
	}
	if amount > balance-s.CurrencyOffered(actor) {
		return domain.SessionView{}, errors.ErrInsufficientBalance
	}
	if err = s.AddCurrency(actor, amount); err != nil {
		return domain.SessionView{}, err
	}
	return e.offerUpdated(ctx, s, actor), nil
}

func (e *Engine) RemoveCurrency(ctx context.Context, s *domain.Session, actor domain.ActorID,
	channel domain.ChannelID, amount int64) (domain.SessionView, error) {
	s.Lock()
	defer s.Unlock()

	if err := checkContext(s, actor, channel); err != nil {
		return domain.SessionView{}, err
	}
	if err := s.RemoveCurrency(actor, amount); err != nil {
		return domain.SessionView{}, err
	}
	return e.offerUpdated(ctx, s, actor), nil
}

// AddAsset puts one of the actor's creatures on their side. The selected
// creature and favorites are refused.
func (e *Engine) AddAsset(ctx context.Context, s *domain.Session, actor domain.ActorID,
	channel domain.ChannelID, assetID uuid.UUID) (domain.SessionView, error) {
	s.Lock()
	defer s.Unlock()

	if err := checkContext(s, actor, channel); err != nil {
		return domain.SessionView{}, err
	}
	asset, position, err := e.ledger.LocateAsset(ctx, actor, assetID)
	if err != nil {
		return domain.SessionView{}, lookupFailure(err)
	}
	active, err := e.ledger.GetActiveIndex(ctx, actor)
	if err != nil {
		return domain.SessionView{}, lookupFailure(err)
	}
	if position == active {
		return domain.SessionView{}, errors.ErrAlreadySelected
	}
	if asset.Favorite {
		return domain.SessionView{}, errors.ErrProtected
	}
	offer := domain.AssetOffer{AssetID: asset.ID, Position: position, Snapshot: asset}
	if err = s.AddAsset(actor, offer); err != nil {
		return domain.SessionView{}, err
	}
	return e.offerUpdated(ctx, s, actor), nil
}

func (e *Engine) RemoveAsset(ctx context.Context, s *domain.Session, actor domain.ActorID,
	channel domain.ChannelID, assetID uuid.UUID) (domain.SessionView, error) {
	s.Lock()
	defer s.Unlock()

	if err := checkContext(s, actor, channel); err != nil {
		return domain.SessionView{}, err
	}
	if err := s.RemoveAsset(actor, assetID); err != nil {
		return domain.SessionView{}, err
	}
	return e.offerUpdated(ctx, s, actor), nil
}

// ToggleConfirm flips the actor's agreement. The confirmation completing the
// pair settles the trade before the lock is released.
func (e *Engine) ToggleConfirm(ctx context.Context, s *domain.Session, actor domain.ActorID) (domain.Outcome, error) {
	s.Lock()
	defer s.Unlock()

	counterpart, ok := s.Counterpart(actor)
	if !ok {
		return domain.Outcome{}, errors.ErrNotInSession
	}
	if s.Status() != domain.SessionNegotiating {
		return domain.Outcome{}, errors.ErrSessionClosed
	}
	if _, err := e.ledger.GetBalance(ctx, counterpart); err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			e.abandon(ctx, s, counterpart)
			return domain.Outcome{}, errors.ErrSessionAbandoned
		}
		return domain.Outcome{}, fmt.Errorf("%w: %v", errors.ErrLedgerFailure, err)
	}

	settle, err := s.ToggleConfirm(actor)
	if err != nil {
		return domain.Outcome{}, err
	}
	view := s.View()
	e.publisher.Publish(ctx, event.ConfirmationToggled{
		View:      view,
		Actor:     actor,
		Confirmed: s.Confirmed(actor),
	})
	if !settle {
		return domain.Outcome{View: view}, nil
	}

	e.log.Debug("Both sides confirmed, settling", "session", s.ID())
	receipt := e.settler.Settle(ctx, s)
	e.publisher.Publish(ctx, event.SettlementCompleted{Receipt: receipt})
	return domain.Outcome{View: s.View(), Receipt: &receipt}, nil
}

// Cancel ends the negotiation for both participants. Nothing is exchanged.
func (e *Engine) Cancel(ctx context.Context, s *domain.Session, actor domain.ActorID) (domain.SessionView, error) {
	s.Lock()
	defer s.Unlock()

	if err := s.Cancel(actor); err != nil {
		return domain.SessionView{}, err
	}
	e.registry.Close(s)
	e.log.Debug("Trade cancelled", "session", s.ID(), "by", actor)
	e.publisher.Publish(ctx, event.SessionCancelled{
		SessionID:    s.ID(),
		By:           actor,
		Participants: s.Participants(),
	})
	return s.View(), nil
}

func (e *Engine) abandon(ctx context.Context, s *domain.Session, missing domain.ActorID) {
	s.Abandon()
	e.registry.Close(s)
	e.log.Warn("Trade abandoned, participant left the ledger", "session", s.ID(), "missing", missing)
	e.publisher.Publish(ctx, event.SessionAbandoned{
		SessionID:    s.ID(),
		Missing:      missing,
		Participants: s.Participants(),
	})
}

func (e *Engine) offerUpdated(ctx context.Context, s *domain.Session, actor domain.ActorID) domain.SessionView {
	view := s.View()
	e.publisher.Publish(ctx, event.OfferUpdated{View: view, Actor: actor})
	return view
}

// checkContext makes sure offers are changed from the channel the trade was opened in.
func checkContext(s *domain.Session, actor domain.ActorID, channel domain.ChannelID) error {
	if !s.HasParticipant(actor) {
		return errors.ErrNotInSession
	}
	if s.Status() != domain.SessionNegotiating {
		return errors.ErrSessionClosed
	}
	if channel != s.Channel() {
		return errors.ErrWrongContext
	}
	return nil
}

// lookupFailure keeps validation sentinels as they are and marks anything else
// as a ledger failure.
func lookupFailure(err error) error {
	if stderrors.Is(err, errors.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", errors.ErrLedgerFailure, err)
}
