package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"trade-lab/contract"
	"trade-lab/domain"
	"trade-lab/domain/event"
	"trade-lab/errors"

	"github.com/google/uuid"
)

const DefaultInvitationTimeout = 30 * time.Second

// Invitation is an outstanding request to trade. An inviter has at most one.
type Invitation struct {
	ID        uuid.UUID        `json:"id"`
	From      domain.ActorID   `json:"from"`
	To        domain.ActorID   `json:"to"`
	Channel   domain.ChannelID `json:"channel"`
	ExpiresAt time.Time        `json:"expires_at"`

	timer *time.Timer
}

// InvitationGate holds invitations for a bounded time. Only an accepted
// invitation reaches the registry, through a single TryOpen.
type InvitationGate struct {
	mu        sync.Mutex
	log       *slog.Logger
	registry  contract.IRegistry
	ledger    contract.AssetLedger
	publisher contract.EventPublisher
	timeout   time.Duration
	pending   map[domain.ActorID]*Invitation
	now       func() time.Time
}

func NewInvitationGate(log *slog.Logger, registry contract.IRegistry, ledger contract.AssetLedger,
	publisher contract.EventPublisher, timeout time.Duration) *InvitationGate {
	if timeout <= 0 {
		timeout = DefaultInvitationTimeout
	}
	return &InvitationGate{
		log:       log,
		registry:  registry,
		ledger:    ledger,
		publisher: publisher,
		timeout:   timeout,
		pending:   make(map[domain.ActorID]*Invitation),
		now:       time.Now,
	}
}

// Invite asks to to trade with from in channel.
func (g *InvitationGate) Invite(ctx context.Context, from, to domain.ActorID, channel domain.ChannelID) (Invitation, error) {
	if from == to {
		return Invitation{}, errors.ErrSelfTrade
	}
	for _, actor := range []domain.ActorID{from, to} {
		if _, busy := g.registry.Get(actor); busy {
			return Invitation{}, errors.ErrAlreadyInSession
		}
		if err := g.checkMember(ctx, actor); err != nil {
			return Invitation{}, err
		}
	}

	g.mu.Lock()
	if _, ok := g.pending[from]; ok {
		g.mu.Unlock()
		return Invitation{}, errors.ErrInvitationPending
	}
	inv := &Invitation{
		ID:        uuid.New(),
		From:      from,
		To:        to,
		Channel:   channel,
		ExpiresAt: g.now().Add(g.timeout).UTC(),
	}
	id := inv.ID
	inv.timer = time.AfterFunc(g.timeout, func() { g.expire(from, id) })
	g.pending[from] = inv
	g.mu.Unlock()

	g.log.Debug("Invitation sent", "from", from, "to", to, "channel", channel)
	g.publisher.Publish(ctx, event.InvitationSent{
		ID:        inv.ID,
		From:      from,
		To:        to,
		Channel:   channel,
		ExpiresAt: inv.ExpiresAt,
	})
	return *inv, nil
}

// Accept opens the session between inviter and invitee.
func (g *InvitationGate) Accept(ctx context.Context, invitee, inviter domain.ActorID) (domain.SessionView, error) {
	inv, err := g.take(invitee, inviter)
	if err != nil {
		return domain.SessionView{}, err
	}

	s, err := g.registry.TryOpen(inv.From, inv.To, inv.Channel)
	if err != nil {
		return domain.SessionView{}, err
	}
	s.Lock()
	view := s.View()
	s.Unlock()

	g.log.Info("Trade opened", "session", view.SessionID, "from", inv.From, "to", inv.To)
	g.publisher.Publish(ctx, event.SessionOpened{View: view, At: g.now().UTC()})
	return view, nil
}

func (g *InvitationGate) Decline(ctx context.Context, invitee, inviter domain.ActorID) error {
	inv, err := g.take(invitee, inviter)
	if err != nil {
		return err
	}
	g.publisher.Publish(ctx, event.InvitationDeclined{ID: inv.ID, From: inv.From, To: inv.To})
	return nil
}

// Outgoing returns the invitation sent by from, if any.
func (g *InvitationGate) Outgoing(from domain.ActorID) (Invitation, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	inv, ok := g.pending[from]
	if !ok {
		return Invitation{}, false
	}
	return *inv, true
}

// Stop drops every pending invitation without notifying anyone.
func (g *InvitationGate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for from, inv := range g.pending {
		inv.timer.Stop()
		delete(g.pending, from)
	}
}

func (g *InvitationGate) take(invitee, inviter domain.ActorID) (*Invitation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	inv, ok := g.pending[inviter]
	if !ok || inv.To != invitee {
		return nil, errors.ErrInvitationNotFound
	}
	inv.timer.Stop()
	delete(g.pending, inviter)
	return inv, nil
}

func (g *InvitationGate) expire(from domain.ActorID, id uuid.UUID) {
	g.mu.Lock()
	inv, ok := g.pending[from]
	if !ok || inv.ID != id {
		g.mu.Unlock()
		return
	}
	delete(g.pending, from)
	g.mu.Unlock()

	g.log.Debug("Invitation expired", "from", inv.From, "to", inv.To)
	g.publisher.Publish(context.Background(), event.InvitationExpired{ID: inv.ID, From: inv.From, To: inv.To})
}

// checkMember refuses actors the ledger does not know yet.
func (g *InvitationGate) checkMember(ctx context.Context, actor domain.ActorID) error {
	if _, err := g.ledger.GetBalance(ctx, actor); err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return fmt.Errorf("%w: %s has no ledger record", errors.ErrNotFound, actor)
		}
		return fmt.Errorf("%w: %v", errors.ErrLedgerFailure, err)
	}
	return nil
}
