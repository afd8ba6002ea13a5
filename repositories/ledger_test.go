package repositories

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"testing"

	"trade-lab/domain"
	"trade-lab/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T) *LedgerRepository {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewLedgerRepository(db, slog.Default())
}

func kadabra() domain.Asset {
	return domain.Asset{
		SpeciesID: 64,
		Nickname:  "Spoon",
		Level:     36,
		XP:        1200,
		Nature:    "Timid",
		IVs:       domain.IVs{HP: 31, Atk: 2, Def: 20, SpAtk: 31, SpDef: 25, Spd: 30},
		Shiny:     true,
		HeldItem:  42,
	}
}

func TestLedger_CreateMember(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ledger := newLedger(t)

	// When a member is created with an asset without id
	err := ledger.CreateMember(ctx, Member{ID: "alice", Balance: 500, Assets: []domain.Asset{kadabra()}})
	req.NoError(err)

	// Then the asset got an identity
	m, err := ledger.GetMember(ctx, "alice")
	req.NoError(err)
	req.Equal(int64(500), m.Balance)
	req.Len(m.Assets, 1)
	req.NotEqual(uuid.Nil, m.Assets[0].ID)

	// And the same member cannot be created twice
	req.ErrorIs(ledger.CreateMember(ctx, Member{ID: "alice"}), errors.ErrMemberExists)

	_, err = ledger.GetBalance(ctx, "nobody")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestLedger_ListMembers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ledger := newLedger(t)
	req.NoError(ledger.CreateMember(ctx, Member{ID: "bob"}))
	req.NoError(ledger.CreateMember(ctx, Member{ID: "alice"}))

	members, err := ledger.ListMembers(ctx)
	req.NoError(err)
	req.Len(members, 2)
	req.Equal(domain.ActorID("alice"), members[0].ID)
	req.Equal(domain.ActorID("bob"), members[1].ID)
}

func TestLedger_AdjustBalance(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ledger := newLedger(t)
	req.NoError(ledger.CreateMember(ctx, Member{ID: "alice", Balance: 100}))

	req.NoError(ledger.AdjustBalance(ctx, "alice", 50))
	req.NoError(ledger.AdjustBalance(ctx, "alice", -150))
	req.ErrorIs(ledger.AdjustBalance(ctx, "alice", -1), errors.ErrInsufficientBalance)

	balance, err := ledger.GetBalance(ctx, "alice")
	req.NoError(err)
	req.Zero(balance)
}

func TestLedger_TransferCurrency(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ledger := newLedger(t)
	req.NoError(ledger.CreateMember(ctx, Member{ID: "alice", Balance: 100}))
	req.NoError(ledger.CreateMember(ctx, Member{ID: "bob", Balance: 10}))

	req.NoError(ledger.TransferCurrency(ctx, "alice", "bob", 60))

	// A failed transfer leaves both balances untouched
	req.ErrorIs(ledger.TransferCurrency(ctx, "alice", "bob", 41), errors.ErrInsufficientBalance)
	req.ErrorIs(ledger.TransferCurrency(ctx, "alice", "nobody", 1), errors.ErrNotFound)
	req.ErrorIs(ledger.TransferCurrency(ctx, "alice", "bob", 0), errors.ErrInvalidAmount)

	alice, err := ledger.GetBalance(ctx, "alice")
	req.NoError(err)
	bob, err := ledger.GetBalance(ctx, "bob")
	req.NoError(err)
	req.Equal(int64(40), alice)
	req.Equal(int64(70), bob)
}

func TestLedger_BalanceOverflow(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ledger := newLedger(t)
	req.NoError(ledger.CreateMember(ctx, Member{ID: "alice", Balance: 100}))
	req.NoError(ledger.CreateMember(ctx, Member{ID: "bob", Balance: math.MaxInt64}))

	// Neither a credit nor a transfer may wrap a balance around
	req.ErrorIs(ledger.AdjustBalance(ctx, "bob", 1), errors.ErrInvalidAmount)
	req.ErrorIs(ledger.TransferCurrency(ctx, "alice", "bob", 1), errors.ErrInvalidAmount)

	alice, err := ledger.GetBalance(ctx, "alice")
	req.NoError(err)
	bob, err := ledger.GetBalance(ctx, "bob")
	req.NoError(err)
	req.Equal(int64(100), alice)
	req.Equal(int64(math.MaxInt64), bob)
}

func TestLedger_TransferCurrency_Concurrent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ledger := newLedger(t)
	req.NoError(ledger.CreateMember(ctx, Member{ID: "alice", Balance: 1000}))
	req.NoError(ledger.CreateMember(ctx, Member{ID: "bob"}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				err := ledger.TransferCurrency(ctx, "alice", "bob", 10)
				if err == nil {
					return
				}
			}
		}()
	}
	wg.Wait()

	alice, err := ledger.GetBalance(ctx, "alice")
	req.NoError(err)
	bob, err := ledger.GetBalance(ctx, "bob")
	req.NoError(err)
	req.Equal(int64(900), alice)
	req.Equal(int64(100), bob)
}

func TestLedger_Assets(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ledger := newLedger(t)
	req.NoError(ledger.CreateMember(ctx, Member{ID: "alice"}))

	first, err := ledger.GrantAsset(ctx, "alice", kadabra())
	req.NoError(err)
	second, err := ledger.GrantAsset(ctx, "alice", domain.Asset{SpeciesID: 25})
	req.NoError(err)

	got, err := ledger.GetAssetAt(ctx, "alice", 1)
	req.NoError(err)
	req.Equal(second, got)

	_, err = ledger.GetAssetAt(ctx, "alice", 2)
	req.ErrorIs(err, errors.ErrNotFound)

	located, index, err := ledger.LocateAsset(ctx, "alice", first.ID)
	req.NoError(err)
	req.Equal(0, index)
	req.Equal(first, located)

	_, _, err = ledger.LocateAsset(ctx, "alice", uuid.New())
	req.ErrorIs(err, errors.ErrNotFound)

	req.NoError(ledger.SetFavorite(ctx, "alice", 0, true))
	got, err = ledger.GetAssetAt(ctx, "alice", 0)
	req.NoError(err)
	req.True(got.Favorite)
}

func TestLedger_TransferAsset(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ledger := newLedger(t)
	req.NoError(ledger.CreateMember(ctx, Member{ID: "alice", Selected: 2}))
	req.NoError(ledger.CreateMember(ctx, Member{ID: "bob"}))
	pikachu, err := ledger.GrantAsset(ctx, "alice", domain.Asset{SpeciesID: 25})
	req.NoError(err)
	traded, err := ledger.GrantAsset(ctx, "alice", kadabra())
	req.NoError(err)
	last, err := ledger.GrantAsset(ctx, "alice", domain.Asset{SpeciesID: 1})
	req.NoError(err)

	// When alice hands her Kadabra over and it evolves
	alakazam := 65
	received, err := ledger.TransferAsset(ctx, "alice", "bob", traded.ID, domain.AssetMutation{SpeciesID: &alakazam})
	req.NoError(err)

	// Then bob owns a new record with the same intrinsic attributes
	req.NotEqual(traded.ID, received.ID)
	req.Equal(alakazam, received.SpeciesID)
	expected := traded
	expected.ID = received.ID
	expected.SpeciesID = alakazam
	req.Equal(expected, received)

	bob, err := ledger.GetMember(ctx, "bob")
	req.NoError(err)
	req.Equal([]domain.Asset{received}, bob.Assets)

	// And alice's collection closed the gap without touching her selection
	alice, err := ledger.GetMember(ctx, "alice")
	req.NoError(err)
	req.Equal([]domain.Asset{pikachu, last}, alice.Assets)
	req.Equal(2, alice.Selected)

	// The asset is gone from alice
	_, err = ledger.TransferAsset(ctx, "alice", "bob", traded.ID, domain.AssetMutation{})
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestLedger_ActiveIndex(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ledger := newLedger(t)
	req.NoError(ledger.CreateMember(ctx, Member{ID: "alice", Assets: []domain.Asset{kadabra(), kadabra()}}))

	req.NoError(ledger.SetActiveIndex(ctx, "alice", 1))
	index, err := ledger.GetActiveIndex(ctx, "alice")
	req.NoError(err)
	req.Equal(1, index)

	req.ErrorIs(ledger.SetActiveIndex(ctx, "alice", 2), errors.ErrInvalidIndex)
	req.ErrorIs(ledger.SetActiveIndex(ctx, "alice", -1), errors.ErrInvalidIndex)
}

func TestLedger_CanceledContext(t *testing.T) {
	req := require.New(t)
	ledger := newLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ledger.GetBalance(ctx, "alice")
	req.ErrorIs(err, context.Canceled)
	req.ErrorIs(ledger.AdjustBalance(ctx, "alice", 1), context.Canceled)
}
