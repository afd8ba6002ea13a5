// Package evolution decides which side effects a transfer triggers.
// It is pure: no ledger access, no events. The settlement layer applies what it reports.
package evolution

import (
	"embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed catalog/*.toml
var catalogFolder embed.FS

const defaultCatalog = "catalog/species.toml"

// TradeEvolution turns a species into Target when it changes hands.
// Item, when set, must be held for the evolution to happen.
type TradeEvolution struct {
	Target int  `toml:"target"`
	Item   *int `toml:"item"`
}

type Species struct {
	ID             int             `toml:"id"`
	Name           string          `toml:"name"`
	TradeEvolution *TradeEvolution `toml:"trade_evolution"`
}

// Catalog indexes species by id.
type Catalog struct {
	species map[int]Species
}

type catalogFile struct {
	Species []Species `toml:"species"`
}

// LoadDefaultCatalog parses the catalog embedded in the binary.
func LoadDefaultCatalog() (*Catalog, error) {
	data, err := catalogFolder.ReadFile(defaultCatalog)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

// LoadCatalogFile parses a catalog from disk, used to override the embedded one.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("species catalog: %w", err)
	}
	c := &Catalog{species: make(map[int]Species, len(file.Species))}
	for _, s := range file.Species {
		if _, ok := c.species[s.ID]; ok {
			return nil, fmt.Errorf("species catalog: duplicate species %d", s.ID)
		}
		c.species[s.ID] = s
	}
	for _, s := range c.species {
		if s.TradeEvolution == nil {
			continue
		}
		if _, ok := c.species[s.TradeEvolution.Target]; !ok {
			return nil, fmt.Errorf("species catalog: %s evolves into unknown species %d", s.Name, s.TradeEvolution.Target)
		}
	}
	return c, nil
}

func (c *Catalog) Get(id int) (Species, bool) {
	s, ok := c.species[id]
	return s, ok
}

// Name returns the species name, or a placeholder for unknown ids.
func (c *Catalog) Name(id int) string {
	if s, ok := c.species[id]; ok {
		return s.Name
	}
	return fmt.Sprintf("species #%d", id)
}

func (c *Catalog) Len() int {
	return len(c.species)
}
