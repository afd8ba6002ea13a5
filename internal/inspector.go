package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trade-lab/domain"
	"trade-lab/repositories"

	"github.com/dgraph-io/badger/v4"
)

const DefaultInspectLimit = 100

type InspectRow struct {
	Key       string `json:"key"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	EntityID  string `json:"entity_id"`
	Detail    string `json:"detail"`
}

type RowMapper func(key string, val []byte) InspectRow

// Inspector reads raw Badger entries for the debug endpoint.
type Inspector struct {
	db     *badger.DB
	mapper RowMapper
}

func NewInspector(db *badger.DB, mapper RowMapper) *Inspector {
	if mapper == nil {
		mapper = DefaultMapper
	}
	return &Inspector{db: db, mapper: mapper}
}

// Scan returns at most limit rows whose key starts with prefix.
func (i *Inspector) Scan(prefix string, limit int) ([]InspectRow, error) {
	if limit <= 0 {
		limit = DefaultInspectLimit
	}
	var rows []InspectRow
	err := i.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)) && len(rows) < limit; it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				rows = append(rows, i.mapper(string(item.Key()), val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return rows, err
}

func DefaultMapper(key string, val []byte) InspectRow {
	return InspectRow{
		Key:       key,
		Type:      "RAW",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
}

// TradeMapper decodes members and settlement receipts, falling back to
// DefaultMapper for anything else.
func TradeMapper(key string, val []byte) InspectRow {
	row := DefaultMapper(key, val)
	switch {
	case strings.HasPrefix(key, "member:"):
		var m repositories.Member
		if err := json.Unmarshal(val, &m); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Type = "MEMBER"
		row.EntityID = string(m.ID)
		row.Detail = fmt.Sprintf("balance=%d assets=%d selected=%d", m.Balance, len(m.Assets), m.Selected+1)
	case strings.HasPrefix(key, "settlement:"):
		var r domain.SettlementReceipt
		if err := json.Unmarshal(val, &r); err != nil {
			row.Detail = "Error: unmarshal failed"
			return row
		}
		row.Type = "RECEIPT"
		row.Timestamp = r.SettledAt.Format(time.TimeOnly)
		row.EntityID = shortID(r.SessionID.String())
		row.Detail = fmt.Sprintf("%s<->%s transferred=%d skipped=%d",
			r.Participants[0], r.Participants[1], len(r.Transfers), len(r.Skipped))
	}
	return row
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
