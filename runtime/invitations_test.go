package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"trade-lab/domain"
	"trade-lab/domain/event"
	"trade-lab/errors"
	"trade-lab/mocks"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recorder struct {
	mu     sync.Mutex
	events []event.DomainEvent
	seen   chan event.DomainEvent
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan event.DomainEvent, 16)}
}

func (r *recorder) Publish(_ context.Context, e event.DomainEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	r.seen <- e
}

func newGate(t *testing.T, timeout time.Duration) (*InvitationGate, *Registry, *recorder) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockAssetLedger(ctrl)
	ledger.EXPECT().GetBalance(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, actor domain.ActorID) (int64, error) {
			if actor == "ghost" {
				return 0, errors.ErrNotFound
			}
			return 100, nil
		}).
		AnyTimes()
	registry := NewRegistry()
	rec := newRecorder()
	gate := NewInvitationGate(logs.GetLoggerFromLevel(slog.LevelDebug), registry, ledger, rec, timeout)
	t.Cleanup(gate.Stop)
	return gate, registry, rec
}

func TestInvitationGate_AcceptOpensSession(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	gate, registry, rec := newGate(t, time.Minute)

	inv, err := gate.Invite(ctx, "alice", "bob", "general")
	req.NoError(err)
	req.Equal(domain.ActorID("bob"), inv.To)

	view, err := gate.Accept(ctx, "bob", "alice")
	req.NoError(err)
	req.Equal(domain.ChannelID("general"), view.Channel)
	req.Equal(domain.SessionNegotiating, view.Status)

	s, ok := registry.Get("bob")
	req.True(ok)
	req.Equal(view.SessionID, s.ID())

	// The invitation is consumed
	_, err = gate.Accept(ctx, "bob", "alice")
	req.ErrorIs(err, errors.ErrInvitationNotFound)
	_, ok = gate.Outgoing("alice")
	req.False(ok)

	req.Len(rec.events, 2)
	req.IsType(event.InvitationSent{}, rec.events[0])
	req.IsType(event.SessionOpened{}, rec.events[1])
}

func TestInvitationGate_Rejections(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	gate, registry, _ := newGate(t, time.Minute)

	_, err := gate.Invite(ctx, "alice", "alice", "general")
	req.ErrorIs(err, errors.ErrSelfTrade)

	_, err = gate.Invite(ctx, "alice", "ghost", "general")
	req.ErrorIs(err, errors.ErrNotFound)

	_, err = gate.Invite(ctx, "alice", "bob", "general")
	req.NoError(err)
	_, err = gate.Invite(ctx, "alice", "carol", "general")
	req.ErrorIs(err, errors.ErrInvitationPending)

	_, err = registry.TryOpen("dave", "erin", "general")
	req.NoError(err)
	_, err = gate.Invite(ctx, "carol", "dave", "general")
	req.ErrorIs(err, errors.ErrAlreadyInSession)

	// Only the invitee can answer
	_, err = gate.Accept(ctx, "carol", "alice")
	req.ErrorIs(err, errors.ErrInvitationNotFound)
}

func TestInvitationGate_Timeout(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	gate, registry, rec := newGate(t, 20*time.Millisecond)

	// Given alice invited bob
	_, err := gate.Invite(ctx, "alice", "bob", "general")
	req.NoError(err)
	<-rec.seen

	// When nobody answers in time
	select {
	case e := <-rec.seen:
		expired, ok := e.(event.InvitationExpired)
		req.True(ok)
		req.Equal(domain.ActorID("bob"), expired.To)
	case <-time.After(time.Second):
		req.Fail("invitation did not expire")
	}

	// Then bob can no longer accept and no session was opened
	_, err = gate.Accept(ctx, "bob", "alice")
	req.ErrorIs(err, errors.ErrInvitationNotFound)
	req.Zero(registry.Count())

	// And alice is free to invite again
	_, err = gate.Invite(ctx, "alice", "bob", "general")
	req.NoError(err)
}

func TestInvitationGate_Decline(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	gate, registry, rec := newGate(t, time.Minute)

	_, err := gate.Invite(ctx, "alice", "bob", "general")
	req.NoError(err)
	req.NoError(gate.Decline(ctx, "bob", "alice"))
	req.ErrorIs(gate.Decline(ctx, "bob", "alice"), errors.ErrInvitationNotFound)

	req.Zero(registry.Count())
	declined, ok := rec.events[1].(event.InvitationDeclined)
	req.True(ok)
	req.Equal([]domain.ActorID{"alice"}, declined.Recipients())
}

func TestInvitationGate_AcceptWhileBusy(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	gate, registry, _ := newGate(t, time.Minute)

	// Given bob got busy after alice invited him
	_, err := gate.Invite(ctx, "alice", "bob", "general")
	req.NoError(err)
	_, err = registry.TryOpen("bob", "carol", "general")
	req.NoError(err)

	// Then accepting fails in the registry
	_, err = gate.Accept(ctx, "bob", "alice")
	req.ErrorIs(err, errors.ErrAlreadyInSession)
	_, ok := registry.Get("alice")
	req.False(ok)
}
