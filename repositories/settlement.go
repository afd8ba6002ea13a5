//go:generate go run go.uber.org/mock/mockgen -source=settlement.go -destination=../mocks/mock_settlement_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"trade-lab/domain"

	"github.com/dgraph-io/badger/v4"
)

const settlementPrefix = "settlement:"

type ISettlementRepository interface {
	StoreReceipt(receipt domain.SettlementReceipt) error
	GetReceipts(cursor *string) ([]domain.SettlementReceipt, *string, error)
}

type SettlementRepository struct {
	db          *badger.DB
	log         *slog.Logger
	limitReturn *int
}

func NewSettlementRepository(db *badger.DB, log *slog.Logger, limitReturn *int) SettlementRepository {
	return SettlementRepository{db: db, log: log, limitReturn: limitReturn}
}

// StoreReceipt persists a settlement receipt.
// The key is formatted as "settlement:{timestamp_padded}:{session_id}" so that
// a prefix scan returns receipts in chronological order.
func (s SettlementRepository) StoreReceipt(receipt domain.SettlementReceipt) error {
	key := fmt.Sprintf("%s%019d:%s", settlementPrefix, receipt.SettledAt.UnixNano(), receipt.SessionID)
	bytes, err := json.Marshal(receipt)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetReceipts returns receipts newest first, resuming after cursor when set.
// The returned cursor points at the last receipt read.
func (s SettlementRepository) GetReceipts(cursor *string) ([]domain.SettlementReceipt, *string, error) {
	var receipts []domain.SettlementReceipt
	var lastKey string
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(settlementPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Highest possible timestamp, then walk backwards
			seekKey = append([]byte(settlementPrefix), []byte("9999999999999999999")...)
		default:
			seekKey = append([]byte(settlementPrefix), []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if s.limitReturn != nil && len(receipts) == *s.limitReturn {
				s.log.Debug(fmt.Sprintf("Maximum of %d receipts reached", *s.limitReturn))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			var receipt domain.SettlementReceipt
			err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &receipt)
			})
			if err != nil {
				return err
			}
			receipts = append(receipts, receipt)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return receipts, &lastKey, nil
}
