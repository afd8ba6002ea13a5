package repositories

import (
	"log/slog"
	"testing"
	"time"

	"trade-lab/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newReceipt(at time.Time) domain.SettlementReceipt {
	return domain.SettlementReceipt{
		SessionID:    uuid.New(),
		Participants: [2]domain.ActorID{"alice", "bob"},
		Transfers: []domain.TransferRecord{
			{From: "alice", To: "bob", Kind: domain.OfferKindCurrency, Amount: 100},
		},
		SettledAt: at,
	}
}

func Test_Record_Multiple_Receipts(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewSettlementRepository(db, slog.Default(), nil)
	at := time.Now().UTC()
	receipts := []domain.SettlementReceipt{
		newReceipt(at),
		newReceipt(at.Add(1 * time.Minute)),
		newReceipt(at.Add(2 * time.Minute)),
	}
	for _, r := range receipts {
		req.NoError(repository.StoreReceipt(r))
	}

	fetched, cursor, err := repository.GetReceipts(nil)
	req.NoError(err)
	req.NotNil(cursor)
	req.Len(fetched, len(receipts))

	// Newest first
	req.Equal(receipts[2].SessionID, fetched[0].SessionID)
	req.Equal(receipts[0].SessionID, fetched[2].SessionID)
	req.Equal(receipts[0].Transfers, fetched[2].Transfers)
	req.WithinDuration(receipts[0].SettledAt, fetched[2].SettledAt, 0)
}

func Test_Record_Multiple_Receipts_With_Cursor(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	limit := 2
	repository := NewSettlementRepository(db, slog.Default(), &limit)
	at := time.Now().UTC()
	receipts := []domain.SettlementReceipt{
		newReceipt(at),
		newReceipt(at.Add(1 * time.Minute)),
		newReceipt(at.Add(2 * time.Minute)),
	}
	for _, r := range receipts {
		req.NoError(repository.StoreReceipt(r))
	}

	// Given the first page is full
	page, cursor, err := repository.GetReceipts(nil)
	req.NoError(err)
	req.Len(page, limit)
	req.Equal(receipts[2].SessionID, page[0].SessionID)
	req.Equal(receipts[1].SessionID, page[1].SessionID)

	// When the next page is requested from the cursor
	page, _, err = repository.GetReceipts(cursor)
	req.NoError(err)

	// Then only the oldest receipt is left
	req.Len(page, 1)
	req.Equal(receipts[0].SessionID, page[0].SessionID)
}
