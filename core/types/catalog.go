// Package types - Catalog types
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceOption is a single selectable line item within a category
type PriceOption struct {
	// Code uniquely identifies the option within its category
	Code string `json:"code"`

	// Label is the display label
	Label string `json:"label"`

	// Amount is the option price in the base currency
	Amount decimal.Decimal `json:"amount"`
}

// Catalog is the set of selectable priced options for one category
type Catalog struct {
	// Category is the pricing category this catalog belongs to
	Category Category `json:"category"`

	// Options are the selectable line items. Order carries no meaning for
	// computation; it is preserved for display only.
	Options []PriceOption `json:"options"`

	// Currency is the catalog base currency
	Currency Currency `json:"currency"`

	// Source indicates where the catalog came from (remote, seed, store)
	Source string `json:"source,omitempty"`

	// FetchedAt is when the catalog was last refreshed
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}

// Lookup resolves an option amount by code. A miss is not an error: stale
// selections legitimately reference codes that a refreshed catalog no longer
// carries, and they contribute zero.
func (c *Catalog) Lookup(code string) (decimal.Decimal, bool) {
	if c == nil || code == "" {
		return decimal.Zero, false
	}
	for _, opt := range c.Options {
		if opt.Code == code {
			return opt.Amount, true
		}
	}
	return decimal.Zero, false
}

// Len returns the number of options
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Options)
}

// CatalogSet is a snapshot of catalogs keyed by category. A missing category
// behaves as an empty catalog.
type CatalogSet map[Category]*Catalog

// Get returns the catalog for a category, or nil when absent
func (s CatalogSet) Get(category Category) *Catalog {
	if s == nil {
		return nil
	}
	return s[category]
}

// Put stores a catalog under its category
func (s CatalogSet) Put(catalog *Catalog) {
	if catalog == nil {
		return
	}
	s[catalog.Category] = catalog
}

// Resolve looks up an option amount in the named category, returning zero on
// any miss (absent category, empty code, unknown code).
func (s CatalogSet) Resolve(category Category, code string) decimal.Decimal {
	amount, ok := s.Get(category).Lookup(code)
	if !ok {
		return decimal.Zero
	}
	return amount
}
