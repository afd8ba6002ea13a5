package domain

import (
	"github.com/google/uuid"
)

// OfferKind tags the variants of OfferItem in views and receipts.
type OfferKind string

const (
	OfferKindCurrency OfferKind = "currency"
	OfferKindAsset    OfferKind = "asset"
)

// OfferItem is one entry of an actor's side of a trade.
// It is either a CurrencyOffer or an AssetOffer.
type OfferItem interface {
	Kind() OfferKind
	isOfferItem()
}

// CurrencyOffer is an amount of coins. A side holds at most one.
type CurrencyOffer struct {
	Amount int64
}

func (CurrencyOffer) Kind() OfferKind { return OfferKindCurrency }
func (CurrencyOffer) isOfferItem()    {}

// AssetOffer references a creature by identity and by the position it had in the
// owner's collection when it was offered. Both are checked again at settlement.
type AssetOffer struct {
	AssetID  uuid.UUID
	Position int
	Snapshot Asset
}

func (AssetOffer) Kind() OfferKind { return OfferKindAsset }
func (AssetOffer) isOfferItem()    {}

// OfferLine is the flattened, display-ready form of an OfferItem.
type OfferLine struct {
	Kind      OfferKind `json:"kind"`
	Amount    int64     `json:"amount,omitempty"`
	AssetID   uuid.UUID `json:"asset_id,omitempty"`
	Position  int       `json:"position,omitempty"`
	SpeciesID int       `json:"species_id,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	Level     int       `json:"level,omitempty"`
	Shiny     bool      `json:"shiny,omitempty"`
	IVPercent float64   `json:"iv_percent,omitempty"`
}

// ToLine flattens an offer item. Positions are shown 1-based.
func ToLine(item OfferItem) OfferLine {
	switch it := item.(type) {
	case CurrencyOffer:
		return OfferLine{Kind: OfferKindCurrency, Amount: it.Amount}
	case AssetOffer:
		return OfferLine{
			Kind:      OfferKindAsset,
			AssetID:   it.AssetID,
			Position:  it.Position + 1,
			SpeciesID: it.Snapshot.SpeciesID,
			Nickname:  it.Snapshot.Nickname,
			Level:     it.Snapshot.Level,
			Shiny:     it.Snapshot.Shiny,
			IVPercent: it.Snapshot.IVPercentage(),
		}
	default:
		panic("domain: unknown offer item")
	}
}
