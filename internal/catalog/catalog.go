package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Catalog is the furni template catalog: which item templates exist and
// whether each may change hands in a trade.
type Catalog struct {
	Palette []string
	Index   map[string]int
	Defs    map[string]FurniDef

	PaletteDigest string
	DefsDigest    string
}

type FurniDef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"` // "FLOOR","WALL","SPECIAL"
	Tradable bool   `json:"tradable"`
}

func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Catalog
	c.DefsDigest = sha256Hex(raw)

	var defs []FurniDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("furni.json: %w", err)
	}
	c.Defs = map[string]FurniDef{}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("furni.json: empty id")
		}
		c.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(c.Defs))
	for id := range c.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	c.Palette = ids
	c.Index = make(map[string]int, len(ids))
	for i, id := range ids {
		c.Index[id] = i
	}
	palJSON, _ := json.Marshal(ids)
	c.PaletteDigest = sha256Hex(palJSON)
	return &c, nil
}

// Tradable reports whether the template may be included in a trade offer.
// Unknown templates are not tradable.
func (c *Catalog) Tradable(templateID string) bool {
	d, ok := c.Defs[templateID]
	return ok && d.Tradable
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
