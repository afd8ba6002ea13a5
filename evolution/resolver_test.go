package evolution

import (
	"testing"

	"trade-lab/domain"

	"github.com/stretchr/testify/require"
)

const (
	kadabra   = 64
	alakazam  = 65
	onix      = 95
	steelix   = 208
	pikachu   = 25
	metalCoat = 10026
)

func newResolver(t *testing.T) *Resolver {
	catalog, err := LoadDefaultCatalog()
	require.NoError(t, err)
	return NewResolver(catalog)
}

func TestLoadDefaultCatalog(t *testing.T) {
	req := require.New(t)
	catalog, err := LoadDefaultCatalog()
	req.NoError(err)

	req.Greater(catalog.Len(), 0)
	req.Equal("Kadabra", catalog.Name(kadabra))
	req.Equal("species #9999", catalog.Name(9999))
}

func TestParseCatalog_RejectsUnknownTarget(t *testing.T) {
	req := require.New(t)
	data := []byte(`
[[species]]
id = 1
name = "Broken"
[species.trade_evolution]
target = 2
`)
	_, err := ParseCatalog(data)
	req.Error(err)
	req.Contains(err.Error(), "unknown species 2")
}

func TestParseCatalog_RejectsDuplicates(t *testing.T) {
	req := require.New(t)
	data := []byte(`
[[species]]
id = 1
name = "One"

[[species]]
id = 1
name = "Again"
`)
	_, err := ParseCatalog(data)
	req.Error(err)
}

func TestResolver_Resolve(t *testing.T) {
	resolver := newResolver(t)

	tests := []struct {
		name      string
		asset     domain.Asset
		fired     bool
		toSpecies int
	}{
		{"plain trade evolution", domain.Asset{SpeciesID: kadabra}, true, alakazam},
		{"plain trade evolution holding any item", domain.Asset{SpeciesID: kadabra, HeldItem: 42}, true, alakazam},
		{"everstone blocks evolution", domain.Asset{SpeciesID: kadabra, HeldItem: domain.Everstone}, false, 0},
		{"item evolution with the item", domain.Asset{SpeciesID: onix, HeldItem: metalCoat}, true, steelix},
		{"item evolution without the item", domain.Asset{SpeciesID: onix}, false, 0},
		{"item evolution with another item", domain.Asset{SpeciesID: onix, HeldItem: 42}, false, 0},
		{"no trade evolution", domain.Asset{SpeciesID: pikachu}, false, 0},
		{"unknown species", domain.Asset{SpeciesID: 9999}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			trigger := resolver.Resolve(tt.asset)
			req.Equal(tt.fired, trigger.Fired)
			mutation := trigger.Mutation()
			if !tt.fired {
				req.True(mutation.IsZero())
				return
			}
			req.Equal(tt.asset.SpeciesID, trigger.From.ID)
			req.NotNil(mutation.SpeciesID)
			req.Equal(tt.toSpecies, *mutation.SpeciesID)
		})
	}
}

func TestResolver_Resolve_DoesNotTouchAsset(t *testing.T) {
	req := require.New(t)
	resolver := newResolver(t)
	asset := domain.Asset{SpeciesID: kadabra, Level: 40}

	trigger := resolver.Resolve(asset)

	req.True(trigger.Fired)
	req.Equal(kadabra, asset.SpeciesID)

	moved := asset.Transferred(trigger.Mutation())
	req.Equal(alakazam, moved.SpeciesID)
	req.Equal(40, moved.Level)
}
