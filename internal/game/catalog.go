/*
Package game
File: catalog.go
Description:
    Loads and indexes the static upgrade catalog.
    The catalog is read once at boot (or on SIGHUP) from YAML and is never
    mutated afterwards, so it can be shared freely between goroutines.
*/

package game

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog is the ordered, read-only list of upgrade definitions.
type Catalog struct {
	defs  []UpgradeDef
	index map[string]int
}

// NewCatalog validates defs and builds the id index.
func NewCatalog(defs []UpgradeDef) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]UpgradeDef, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	copy(c.defs, defs)

	for i, d := range c.defs {
		if d.ID == "" {
			return nil, fmt.Errorf("upgrade #%d: missing id", i)
		}
		if _, dup := c.index[d.ID]; dup {
			return nil, fmt.Errorf("upgrade %q: duplicate id", d.ID)
		}
		if d.BaseCost <= 0 {
			return nil, fmt.Errorf("upgrade %q: base_cost must be > 0", d.ID)
		}
		if d.Scale <= 1 {
			return nil, fmt.Errorf("upgrade %q: scale must be > 1", d.ID)
		}
		if !d.Type.Valid() {
			return nil, fmt.Errorf("upgrade %q: unknown type %q", d.ID, d.Type)
		}
		c.index[d.ID] = i
	}
	return c, nil
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewCatalog(f.Upgrades)
}

// LoadCatalog reads a YAML catalog from disk.
// An empty path selects the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the six built-in upgrades.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// Lookup finds the upgrade with the given id.
func (c *Catalog) Lookup(id string) (UpgradeDef, bool) {
	i, ok := c.index[id]
	if !ok {
		return UpgradeDef{}, false
	}
	return c.defs[i], true
}

// All returns the definitions in catalog order.
func (c *Catalog) All() []UpgradeDef {
	out := make([]UpgradeDef, len(c.defs))
	copy(out, c.defs)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.defs) }

// MultiplierDef returns the designated global multiplier: the first mult-type entry.
func (c *Catalog) MultiplierDef() (UpgradeDef, bool) {
	for _, d := range c.defs {
		if d.Type == UpgradeMult {
			return d, true
		}
	}
	return UpgradeDef{}, false
}
