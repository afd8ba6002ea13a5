package domain

import (
	"github.com/google/uuid"
)

// Everstone prevents a held creature from evolving.
const Everstone = 13001

const maxIVTotal = 6 * 31

// IVs are the individual trait values of a creature.
type IVs struct {
	HP    int `json:"hp" toml:"hp"`
	Atk   int `json:"atk" toml:"atk"`
	Def   int `json:"def" toml:"def"`
	SpAtk int `json:"sp_atk" toml:"sp_atk"`
	SpDef int `json:"sp_def" toml:"sp_def"`
	Spd   int `json:"spd" toml:"spd"`
}

func (i IVs) Total() int {
	return i.HP + i.Atk + i.Def + i.SpAtk + i.SpDef + i.Spd
}

// Asset is a tradable creature owned by an actor.
// ID is the identity of the record and changes when ownership changes,
// every other field is intrinsic and survives a transfer.
type Asset struct {
	ID        uuid.UUID `json:"id"`
	SpeciesID int       `json:"species_id"`
	Nickname  string    `json:"nickname,omitempty"`
	Level     int       `json:"level"`
	XP        int       `json:"xp"`
	Nature    string    `json:"nature"`
	IVs       IVs       `json:"ivs"`
	Shiny     bool      `json:"shiny"`
	HeldItem  int       `json:"held_item,omitempty"`
	Favorite  bool      `json:"favorite"`
}

// IVPercentage returns the share of the maximum IV total, between 0 and 1.
func (a Asset) IVPercentage() float64 {
	return float64(a.IVs.Total()) / maxIVTotal
}

// AssetMutation lists the fields a side effect rewrites during a transfer.
// Nil fields are left untouched.
type AssetMutation struct {
	SpeciesID *int
}

func (m AssetMutation) IsZero() bool {
	return m.SpeciesID == nil
}

// Transferred returns the record as the new owner receives it: a fresh identity,
// the mutation applied and the favorite flag cleared.
func (a Asset) Transferred(m AssetMutation) Asset {
	out := a
	out.ID = uuid.New()
	out.Favorite = false
	if m.SpeciesID != nil {
		out.SpeciesID = *m.SpeciesID
	}
	return out
}
