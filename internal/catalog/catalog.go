// Package catalog holds the immutable in-memory table of candidate foods.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/actuallystonmai/meal-recommendation-service/internal/domain"
)

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	items       []domain.FoodItem
	fingerprint string
}

// New copies items into a catalog. Item identity is its position in items.
func New(items []domain.FoodItem) *Catalog {
	owned := make([]domain.FoodItem, len(items))
	copy(owned, items)
	return &Catalog{
		items:       owned,
		fingerprint: fingerprint(owned),
	}
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// Item returns the item at position i.
func (c *Catalog) Item(i int) domain.FoodItem {
	return c.items[i]
}

// Items returns a copy of the items in catalog order.
func (c *Catalog) Items() []domain.FoodItem {
	out := make([]domain.FoodItem, len(c.items))
	copy(out, c.items)
	return out
}

// Fingerprint identifies the catalog content; two catalogs with the same rows in the same
// order share it.
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}

func fingerprint(items []domain.FoodItem) string {
	h := sha256.New()
	buf := make([]byte, 0, 64)
	for _, it := range items {
		buf = buf[:0]
		buf = append(buf, it.Name...)
		buf = append(buf, 0)
		buf = append(buf, it.Category...)
		for _, n := range it.Nutrients {
			buf = append(buf, 0)
			buf = strconv.AppendFloat(buf, n, 'g', -1, 64)
		}
		buf = append(buf, '\n')
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
