package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math"

	"trade-lab/contract"
	"trade-lab/domain"
	"trade-lab/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var _ contract.AssetLedger = (*LedgerRepository)(nil)

const (
	memberPrefix    = "member:"
	conflictRetries = 3
)

// Member is the ledger record of one trainer: coins, collection and the
// index of the selected creature.
type Member struct {
	ID       domain.ActorID `json:"id"`
	Balance  int64          `json:"balance"`
	Selected int            `json:"selected"`
	Assets   []domain.Asset `json:"assets"`
}

// LedgerRepository stores members in BadgerDB under "member:{actor}".
// Every exported call runs in its own transaction; transfers touch both
// members in the same transaction.
type LedgerRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewLedgerRepository(db *badger.DB, log *slog.Logger) *LedgerRepository {
	return &LedgerRepository{db: db, log: log}
}

func memberKey(actor domain.ActorID) []byte {
	return []byte(memberPrefix + string(actor))
}

// CreateMember registers a new trainer. Assets without an id get one.
func (l *LedgerRepository) CreateMember(ctx context.Context, m Member) error {
	m.Assets = lo.Map(m.Assets, func(a domain.Asset, _ int) domain.Asset {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		return a
	})
	return l.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(memberKey(m.ID)); err == nil {
			return errors.ErrMemberExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return putMember(txn, m)
	})
}

func (l *LedgerRepository) GetMember(ctx context.Context, actor domain.ActorID) (Member, error) {
	var m Member
	err := l.view(ctx, func(txn *badger.Txn) error {
		var err error
		m, err = getMember(txn, actor)
		return err
	})
	return m, err
}

// ListMembers scans every member record in key order.
func (l *LedgerRepository) ListMembers(ctx context.Context) ([]Member, error) {
	var members []Member
	err := l.view(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(memberPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m Member
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			members = append(members, m)
		}
		return nil
	})
	return members, err
}

// GrantAsset appends an asset to the actor's collection.
func (l *LedgerRepository) GrantAsset(ctx context.Context, actor domain.ActorID, asset domain.Asset) (domain.Asset, error) {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	err := l.mutate(ctx, actor, func(m *Member) error {
		m.Assets = append(m.Assets, asset)
		return nil
	})
	return asset, err
}

// SetFavorite flags the asset at index as protected from trade, or clears the flag.
func (l *LedgerRepository) SetFavorite(ctx context.Context, actor domain.ActorID, index int, favorite bool) error {
	return l.mutate(ctx, actor, func(m *Member) error {
		if index < 0 || index >= len(m.Assets) {
			return errors.ErrNotFound
		}
		m.Assets[index].Favorite = favorite
		return nil
	})
}

func (l *LedgerRepository) GetBalance(ctx context.Context, actor domain.ActorID) (int64, error) {
	m, err := l.GetMember(ctx, actor)
	return m.Balance, err
}

func (l *LedgerRepository) AdjustBalance(ctx context.Context, actor domain.ActorID, delta int64) error {
	return l.mutate(ctx, actor, func(m *Member) error {
		if m.Balance+delta < 0 {
			return errors.ErrInsufficientBalance
		}
		if delta > 0 && m.Balance > math.MaxInt64-delta {
			return errors.ErrInvalidAmount
		}
		m.Balance += delta
		return nil
	})
}

func (l *LedgerRepository) TransferCurrency(ctx context.Context, from, to domain.ActorID, amount int64) error {
	if amount <= 0 {
		return errors.ErrInvalidAmount
	}
	if from == to {
		return errors.ErrSelfTrade
	}
	return l.update(ctx, func(txn *badger.Txn) error {
		sender, err := getMember(txn, from)
		if err != nil {
			return err
		}
		receiver, err := getMember(txn, to)
		if err != nil {
			return err
		}
		if sender.Balance < amount {
			return errors.ErrInsufficientBalance
		}
		if receiver.Balance > math.MaxInt64-amount {
			return errors.ErrInvalidAmount
		}
		sender.Balance -= amount
		receiver.Balance += amount
		if err = putMember(txn, sender); err != nil {
			return err
		}
		return putMember(txn, receiver)
	})
}

func (l *LedgerRepository) GetAssetAt(ctx context.Context, actor domain.ActorID, index int) (domain.Asset, error) {
	m, err := l.GetMember(ctx, actor)
	if err != nil {
		return domain.Asset{}, err
	}
	if index < 0 || index >= len(m.Assets) {
		return domain.Asset{}, errors.ErrNotFound
	}
	return m.Assets[index], nil
}

func (l *LedgerRepository) LocateAsset(ctx context.Context, actor domain.ActorID, assetID uuid.UUID) (domain.Asset, int, error) {
	m, err := l.GetMember(ctx, actor)
	if err != nil {
		return domain.Asset{}, 0, err
	}
	asset, index, ok := lo.FindIndexOf(m.Assets, func(a domain.Asset) bool {
		return a.ID == assetID
	})
	if !ok {
		return domain.Asset{}, 0, errors.ErrNotFound
	}
	return asset, index, nil
}

// TransferAsset removes the asset from the sender, closing the gap in its
// collection, and appends the transferred copy to the receiver. The sender's
// selected index is left as is: adjusting it is the caller's job.
func (l *LedgerRepository) TransferAsset(ctx context.Context, from, to domain.ActorID, assetID uuid.UUID, mutation domain.AssetMutation) (domain.Asset, error) {
	if from == to {
		return domain.Asset{}, errors.ErrSelfTrade
	}
	var received domain.Asset
	err := l.update(ctx, func(txn *badger.Txn) error {
		sender, err := getMember(txn, from)
		if err != nil {
			return err
		}
		receiver, err := getMember(txn, to)
		if err != nil {
			return err
		}
		asset, index, ok := lo.FindIndexOf(sender.Assets, func(a domain.Asset) bool {
			return a.ID == assetID
		})
		if !ok {
			return errors.ErrNotFound
		}
		sender.Assets = append(sender.Assets[:index:index], sender.Assets[index+1:]...)
		received = asset.Transferred(mutation)
		receiver.Assets = append(receiver.Assets, received)
		if err = putMember(txn, sender); err != nil {
			return err
		}
		return putMember(txn, receiver)
	})
	return received, err
}

func (l *LedgerRepository) GetActiveIndex(ctx context.Context, actor domain.ActorID) (int, error) {
	m, err := l.GetMember(ctx, actor)
	return m.Selected, err
}

func (l *LedgerRepository) SetActiveIndex(ctx context.Context, actor domain.ActorID, index int) error {
	return l.mutate(ctx, actor, func(m *Member) error {
		if index < 0 || (len(m.Assets) > 0 && index >= len(m.Assets)) {
			return errors.ErrInvalidIndex
		}
		m.Selected = index
		return nil
	})
}

// mutate applies fn to one member inside a read-write transaction.
func (l *LedgerRepository) mutate(ctx context.Context, actor domain.ActorID, fn func(m *Member) error) error {
	return l.update(ctx, func(txn *badger.Txn) error {
		m, err := getMember(txn, actor)
		if err != nil {
			return err
		}
		if err = fn(&m); err != nil {
			return err
		}
		return putMember(txn, m)
	})
}

// update retries on optimistic transaction conflicts, which Badger reports when
// two writers touched the same member concurrently.
func (l *LedgerRepository) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = l.db.Update(fn)
		if !stderrors.Is(err, badger.ErrConflict) {
			return err
		}
		l.log.Debug("Ledger transaction conflict, retrying", "attempt", attempt+1)
	}
	return err
}

func (l *LedgerRepository) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.db.View(fn)
}

func getMember(txn *badger.Txn, actor domain.ActorID) (Member, error) {
	var m Member
	item, err := txn.Get(memberKey(actor))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return m, errors.ErrNotFound
	}
	if err != nil {
		return m, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &m)
	})
	return m, err
}

func putMember(txn *badger.Txn, m Member) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal member %s: %w", m.ID, err)
	}
	return txn.Set(memberKey(m.ID), data)
}
