package evolution

import (
	"trade-lab/domain"
)

// Trigger is the outcome of resolving one transferred asset.
type Trigger struct {
	Fired bool
	From  Species
	To    Species
}

// Mutation returns the fields the transfer must rewrite.
func (t Trigger) Mutation() domain.AssetMutation {
	if !t.Fired {
		return domain.AssetMutation{}
	}
	target := t.To.ID
	return domain.AssetMutation{SpeciesID: &target}
}

type Resolver struct {
	catalog *Catalog
}

func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve reports whether handing asset over makes it evolve.
// An Everstone always blocks it. An evolution bound to an item needs that item held.
func (r *Resolver) Resolve(asset domain.Asset) Trigger {
	species, ok := r.catalog.Get(asset.SpeciesID)
	if !ok || species.TradeEvolution == nil {
		return Trigger{}
	}
	if asset.HeldItem == domain.Everstone {
		return Trigger{}
	}
	evo := species.TradeEvolution
	if evo.Item != nil && *evo.Item != asset.HeldItem {
		return Trigger{}
	}
	target, ok := r.catalog.Get(evo.Target)
	if !ok {
		return Trigger{}
	}
	return Trigger{Fired: true, From: species, To: target}
}

func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}
