package sink_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"trade-lab/domain"
	"trade-lab/domain/event"
	"trade-lab/mocks"
	"trade-lab/observability"
	"trade-lab/sink"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func participants() [2]domain.ActorID {
	return [2]domain.ActorID{"alice", "bob"}
}

func TestDisplaySink_Consume(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	// Silencing logs for clean test output
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("Offer changes are rendered", func(t *testing.T) {
		display := mocks.NewMockDisplay(ctrl)
		s := sink.NewDisplaySink(display, logger)
		view := domain.SessionView{SessionID: uuid.New(), Status: domain.SessionNegotiating}

		display.EXPECT().Render(view).Times(2)

		req.NoError(s.Consume(ctx, event.OfferUpdated{View: view, Actor: "alice"}))
		req.NoError(s.Consume(ctx, event.ConfirmationToggled{View: view, Actor: "alice", Confirmed: true}))
	})

	t.Run("Expired invitation tells both sides", func(t *testing.T) {
		display := mocks.NewMockDisplay(ctrl)
		s := sink.NewDisplaySink(display, logger)

		display.EXPECT().Notify(domain.ActorID("alice"), sink.MsgInvitationExpired)
		display.EXPECT().Notify(domain.ActorID("bob"), sink.MsgInvitationExpired)

		req.NoError(s.Consume(ctx, event.InvitationExpired{ID: uuid.New(), From: "alice", To: "bob"}))
	})

	t.Run("Cancellation takes the trade down", func(t *testing.T) {
		display := mocks.NewMockDisplay(ctrl)
		s := sink.NewDisplaySink(display, logger)
		id := uuid.New()

		display.EXPECT().Render(gomock.Any()).Do(func(view domain.SessionView) {
			req.Equal(id, view.SessionID)
			req.Equal(domain.SessionClosed, view.Status)
			req.Equal([]domain.ActorID{"alice", "bob"}, view.Participants())
		})
		display.EXPECT().Notify(gomock.Any(), sink.MsgTradeCancelled).Times(2)

		req.NoError(s.Consume(ctx, event.SessionCancelled{SessionID: id, By: "bob", Participants: participants()}))
	})

	t.Run("Evolution is announced to the new owner only", func(t *testing.T) {
		display := mocks.NewMockDisplay(ctrl)
		s := sink.NewDisplaySink(display, logger)

		display.EXPECT().Notify(domain.ActorID("bob"),
			"What? Your Kadabra is evolving! Congratulations! Your Kadabra evolved into Alakazam!")

		req.NoError(s.Consume(ctx, event.AssetEvolved{Owner: "bob", FromSpecies: "Kadabra", ToSpecies: "Alakazam"}))
	})

	t.Run("Settlement summary names skipped items", func(t *testing.T) {
		display := mocks.NewMockDisplay(ctrl)
		s := sink.NewDisplaySink(display, logger)
		receipt := domain.SettlementReceipt{
			SessionID:    uuid.New(),
			Participants: participants(),
			Skipped: []domain.SkippedItem{
				{Actor: "alice", Kind: domain.OfferKindCurrency, Amount: 100, Reason: "insufficient balance"},
			},
		}
		expected := "Trade complete! 1 item(s) could not be exchanged: 100 coins from alice (insufficient balance)."

		display.EXPECT().Render(gomock.Any())
		display.EXPECT().Notify(domain.ActorID("alice"), expected)
		display.EXPECT().Notify(domain.ActorID("bob"), expected)

		req.NoError(s.Consume(ctx, event.SettlementCompleted{Receipt: receipt}))
	})
}

func TestSettlementSummary(t *testing.T) {
	req := require.New(t)

	req.Equal(sink.MsgTradeComplete, sink.SettlementSummary(domain.SettlementReceipt{}))
	req.Equal("Trade complete! 2 item(s) could not be exchanged: "+
		"creature #3 from bob (stale); 5 coins from alice (broke).",
		sink.SettlementSummary(domain.SettlementReceipt{Skipped: []domain.SkippedItem{
			{Actor: "bob", Kind: domain.OfferKindAsset, Position: 3, Reason: "stale"},
			{Actor: "alice", Kind: domain.OfferKindCurrency, Amount: 5, Reason: "broke"},
		}}))
}

func TestDiskSink_Consume(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := mocks.NewMockISettlementRepository(ctrl)
	s := sink.NewDiskSink(mockRepo, logger)

	receipt := domain.SettlementReceipt{SessionID: uuid.New(), Participants: participants()}
	mockRepo.EXPECT().StoreReceipt(receipt).Return(nil).Times(1)

	req.NoError(s.Consume(context.Background(), event.SettlementCompleted{Receipt: receipt}))
	// Other events are not stored
	req.NoError(s.Consume(context.Background(), event.SessionCancelled{}))
}

func TestTelemetrySink_Consume(t *testing.T) {
	req := require.New(t)
	monitoring := observability.NewMonitoringManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s := sink.NewTelemetrySink(monitoring)
	ctx := context.Background()

	req.NoError(s.Consume(ctx, event.SessionOpened{}))
	req.NoError(s.Consume(ctx, event.AssetEvolved{}))
	req.NoError(s.Consume(ctx, event.SettlementCompleted{Receipt: domain.SettlementReceipt{
		Transfers: make([]domain.TransferRecord, 2),
		Skipped:   make([]domain.SkippedItem, 1),
	}}))

	stats := monitoring.GetLatest()
	req.Equal(uint64(1), stats.SessionsOpened)
	req.Equal(uint64(1), stats.Evolutions)
	req.Equal(uint64(1), stats.Settlements)
	req.Equal(uint64(2), stats.ItemsTransferred)
	req.Equal(uint64(1), stats.ItemsSkipped)
}
