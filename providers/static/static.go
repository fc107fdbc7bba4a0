// Package static provides an in-memory catalog provider for defaults and tests.
package static

import (
	"context"
	"time"

	"studycost/core/types"
)

// Provider serves a fixed catalog set. It implements catalog.Fetcher.
type Provider struct {
	catalogs types.CatalogSet
}

// NewProvider creates a static provider over a catalog set
func NewProvider(catalogs types.CatalogSet) *Provider {
	if catalogs == nil {
		catalogs = make(types.CatalogSet)
	}
	return &Provider{catalogs: catalogs}
}

// Source implements catalog.Fetcher
func (p *Provider) Source() string {
	return "static"
}

// Fetch returns the configured catalog, or an empty one for unknown categories
func (p *Provider) Fetch(ctx context.Context, category types.Category) (*types.Catalog, error) {
	if cat := p.catalogs.Get(category); cat != nil {
		return cat, nil
	}
	return &types.Catalog{
		Category:  category,
		Currency:  types.CurrencyIDR,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Put adds or replaces a catalog
func (p *Provider) Put(cat *types.Catalog) {
	p.catalogs.Put(cat)
}
