// Package catalog maps raw marketplace card identifiers onto the stable
// internal SKU codes used for history keying.
package catalog

import "strconv"

// Catalog resolves raw card IDs to SKU codes.
type Catalog struct {
	skus map[int64]string
}

// New builds a Catalog from a static identifier mapping.
func New(mapping map[int64]string) *Catalog {
	skus := make(map[int64]string, len(mapping))
	for id, sku := range mapping {
		skus[id] = sku
	}
	return &Catalog{skus: skus}
}

// Resolve returns the mapped SKU for a raw card ID, or the decimal string
// form of the ID when no mapping exists. Always returns a non-empty string.
func (c *Catalog) Resolve(rawID int64) string {
	if sku, ok := c.skus[rawID]; ok && sku != "" {
		return sku
	}
	return strconv.FormatInt(rawID, 10)
}

// Size reports how many explicit mappings are configured.
func (c *Catalog) Size() int {
	return len(c.skus)
}
