package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferRecord is one item that changed hands during a settlement.
type TransferRecord struct {
	From       ActorID   `json:"from"`
	To         ActorID   `json:"to"`
	Kind       OfferKind `json:"kind"`
	Amount     int64     `json:"amount,omitempty"`
	AssetID    uuid.UUID `json:"asset_id,omitempty"`
	NewAssetID uuid.UUID `json:"new_asset_id,omitempty"`
	SpeciesID  int       `json:"species_id,omitempty"`
	Evolved    bool      `json:"evolved,omitempty"`
}

// SkippedItem is an offered item that could not be settled.
type SkippedItem struct {
	Actor    ActorID   `json:"actor"`
	Kind     OfferKind `json:"kind"`
	Amount   int64     `json:"amount,omitempty"`
	AssetID  uuid.UUID `json:"asset_id,omitempty"`
	Position int       `json:"position,omitempty"`
	Reason   string    `json:"reason"`
}

// SettlementReceipt summarises a settlement, including partial failures.
type SettlementReceipt struct {
	SessionID    uuid.UUID        `json:"session_id"`
	Participants [2]ActorID       `json:"participants"`
	Transfers    []TransferRecord `json:"transfers"`
	Skipped      []SkippedItem    `json:"skipped"`
	SettledAt    time.Time        `json:"settled_at"`
}

func (r SettlementReceipt) Complete() bool {
	return len(r.Skipped) == 0
}

// NewSkippedItem records why item was not settled. Positions are shown 1-based.
func NewSkippedItem(actor ActorID, item OfferItem, reason error) SkippedItem {
	skipped := SkippedItem{Actor: actor, Kind: item.Kind(), Reason: reason.Error()}
	switch it := item.(type) {
	case CurrencyOffer:
		skipped.Amount = it.Amount
	case AssetOffer:
		skipped.AssetID = it.AssetID
		skipped.Position = it.Position + 1
	}
	return skipped
}
