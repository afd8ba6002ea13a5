package test

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"trade-lab/domain"
	"trade-lab/errors"
	"trade-lab/evolution"
	"trade-lab/exchange"
	"trade-lab/observability"
	"trade-lab/projection"
	"trade-lab/repositories"
	"trade-lab/runtime"
	"trade-lab/runtime/workers"
	"trade-lab/services"
	"trade-lab/settlement"
	"trade-lab/sink"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type stack struct {
	ledger     *repositories.LedgerRepository
	board      *projection.Board
	monitoring *observability.MonitoringManager
	service    *services.TradeService
}

// newStack wires the whole trading core the way the server binary does,
// against a temporary Badger store.
func newStack(t *testing.T) *stack {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	// Reduced to 16 Mo for testing
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	catalog, err := evolution.LoadDefaultCatalog()
	req.NoError(err)

	ledger := repositories.NewLedgerRepository(db, log)
	settlements := repositories.NewSettlementRepository(db, log, lo.ToPtr(100))
	monitoring := observability.NewMonitoringManager(log)
	registry := runtime.NewRegistry()
	supervisor := workers.NewSupervisor(log, 200*time.Millisecond)
	orchestrator := runtime.NewOrchestrator(log, supervisor, registry, monitoring,
		4, 100, time.Second, time.Minute)
	executor := settlement.NewExecutor(log, ledger, evolution.NewResolver(catalog), registry, orchestrator)
	orchestrator.Route(exchange.NewEngine(log, ledger, registry, executor, orchestrator))

	board := projection.NewBoard(projection.DefaultPageSize, projection.DefaultInboxSize)
	orchestrator.Add(
		sink.NewDisplaySink(board, log),
		sink.NewDiskSink(settlements, log),
		sink.NewTelemetrySink(monitoring),
	)
	invitations := runtime.NewInvitationGate(log, registry, ledger, orchestrator, time.Minute)

	go func() {
		_ = orchestrator.Start(ctx)
	}()

	// Clean everything at the end of the test
	t.Cleanup(func() {
		invitations.Stop()
		cancel()
		orchestrator.Stop()
		_ = db.Close()
	})

	return &stack{
		ledger:     ledger,
		board:      board,
		monitoring: monitoring,
		service:    services.NewTradeService(orchestrator, invitations, ledger, board, settlements),
	}
}

func (s *stack) seed(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	// alice selected her Pikachu, bob selected his
	req.NoError(s.ledger.CreateMember(ctx, repositories.Member{
		ID:       "alice",
		Balance:  100,
		Selected: 1,
		Assets:   []domain.Asset{{SpeciesID: 64, Level: 30}, {SpeciesID: 25, Level: 12}},
	}))
	req.NoError(s.ledger.CreateMember(ctx, repositories.Member{
		ID:       "bob",
		Balance:  50,
		Selected: 0,
		Assets:   []domain.Asset{{SpeciesID: 25, Level: 8}, {SpeciesID: 67, Level: 40}},
	}))
}

func (s *stack) open(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	_, err := s.service.Invite(ctx, services.InviteRequest{From: "alice", To: "bob", Channel: "general"})
	req.NoError(err)
	view, err := s.service.Accept(ctx, services.AnswerRequest{Actor: "bob", Inviter: "alice"})
	req.NoError(err)
	req.Equal(domain.SessionNegotiating, view.Status)
}

func Test_Scenario_SwapWithEvolution(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	s := newStack(t)
	s.seed(t)
	s.open(t)

	// Given alice offers her Kadabra and 30 coins, bob offers his Machoke
	result, err := s.service.AddAssets(ctx, "alice", services.AssetsRequest{Channel: "general", Positions: []int{1}})
	req.NoError(err)
	req.Zero(result.Failed())
	_, err = s.service.AddCurrency(ctx, "alice", services.CurrencyRequest{Channel: "general", Amount: 30})
	req.NoError(err)
	_, err = s.service.AddAssets(ctx, "bob", services.AssetsRequest{Channel: "general", Positions: []int{2}})
	req.NoError(err)

	// Bob's selected Pikachu cannot be offered
	_, err = s.service.AddAssets(ctx, "bob", services.AssetsRequest{Channel: "general", Positions: []int{1}})
	req.ErrorIs(err, errors.ErrAlreadySelected)

	// When both confirm
	outcome, err := s.service.Confirm(ctx, "alice")
	req.NoError(err)
	req.Nil(outcome.Receipt)
	outcome, err = s.service.Confirm(ctx, "bob")
	req.NoError(err)

	// Then the trade settled completely and both creatures evolved
	req.NotNil(outcome.Receipt)
	req.True(outcome.Receipt.Complete())
	req.Len(outcome.Receipt.Transfers, 3)

	alice, err := s.ledger.GetMember(ctx, "alice")
	req.NoError(err)
	req.Equal(int64(70), alice.Balance)
	req.Equal([]int{25, 68}, lo.Map(alice.Assets, func(a domain.Asset, _ int) int { return a.SpeciesID }))
	req.Equal(0, alice.Selected, "selected index follows the Pikachu")

	bob, err := s.ledger.GetMember(ctx, "bob")
	req.NoError(err)
	req.Equal(int64(80), bob.Balance)
	req.Equal([]int{25, 65}, lo.Map(bob.Assets, func(a domain.Asset, _ int) int { return a.SpeciesID }))
	req.Equal(0, bob.Selected)

	// Both are free again
	_, err = s.service.Invite(ctx, services.InviteRequest{From: "bob", To: "alice", Channel: "general"})
	req.NoError(err)

	// Sinks run asynchronously
	req.Eventually(func() bool {
		receipts, _, err := s.service.Settlements(nil)
		return err == nil && len(receipts) == 1
	}, 2*time.Second, 20*time.Millisecond)
	req.Eventually(func() bool {
		return lo.ContainsBy(s.service.Notifications("bob"), func(n projection.Notice) bool {
			return strings.Contains(n.Message, "evolved into Alakazam")
		})
	}, 2*time.Second, 20*time.Millisecond)
	req.Eventually(func() bool {
		_, err := s.service.View("alice", 1)
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)
	req.Eventually(func() bool {
		stats := s.monitoring.GetLatest()
		return stats.Settlements == 1 && stats.Evolutions == 2
	}, 2*time.Second, 20*time.Millisecond)
}

func Test_Scenario_PartialSettlement(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	s := newStack(t)
	s.seed(t)
	s.open(t)

	// Given alice offers 80 coins and bob his Machoke
	_, err := s.service.AddCurrency(ctx, "alice", services.CurrencyRequest{Channel: "general", Amount: 80})
	req.NoError(err)
	_, err = s.service.AddAssets(ctx, "bob", services.AssetsRequest{Channel: "general", Positions: []int{2}})
	req.NoError(err)

	// And alice spends her coins elsewhere before the trade settles
	req.NoError(s.ledger.AdjustBalance(ctx, "alice", -90))

	// When both confirm
	_, err = s.service.Confirm(ctx, "alice")
	req.NoError(err)
	outcome, err := s.service.Confirm(ctx, "bob")
	req.NoError(err)

	// Then only the currency was skipped
	req.NotNil(outcome.Receipt)
	req.Len(outcome.Receipt.Skipped, 1)
	req.Equal(domain.OfferKindCurrency, outcome.Receipt.Skipped[0].Kind)
	req.Len(outcome.Receipt.Transfers, 1)

	alice, err := s.ledger.GetMember(ctx, "alice")
	req.NoError(err)
	req.Equal(int64(10), alice.Balance)
	req.Len(alice.Assets, 3)

	req.Eventually(func() bool {
		return lo.ContainsBy(s.service.Notifications("alice"), func(n projection.Notice) bool {
			return strings.Contains(n.Message, "1 item(s) could not be exchanged")
		})
	}, 2*time.Second, 20*time.Millisecond)
}

func Test_Scenario_CancelReleasesBoth(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	s := newStack(t)
	s.seed(t)
	s.open(t)

	_, err := s.service.AddCurrency(ctx, "alice", services.CurrencyRequest{Channel: "general", Amount: 10})
	req.NoError(err)

	// When bob cancels
	_, err = s.service.Cancel(ctx, "bob")
	req.NoError(err)

	// Then nothing moved and both may trade again
	alice, err := s.ledger.GetMember(ctx, "alice")
	req.NoError(err)
	req.Equal(int64(100), alice.Balance)
	_, err = s.service.AddCurrency(ctx, "alice", services.CurrencyRequest{Channel: "general", Amount: 10})
	req.ErrorIs(err, errors.ErrNotInSession)
	s.open(t)
}
