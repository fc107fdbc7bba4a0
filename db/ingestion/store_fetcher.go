// Package ingestion - Store-backed catalog fetcher
package ingestion

import (
	"context"
	"time"

	"studycost/core/types"
	"studycost/db"
)

// StoreFetcher serves catalogs from the active snapshot in the store.
// It implements catalog.Fetcher, so the server can run entirely off
// previously ingested snapshots with no remote endpoint.
type StoreFetcher struct {
	store db.CatalogStore
}

// NewStoreFetcher creates a fetcher over the snapshot store
func NewStoreFetcher(store db.CatalogStore) *StoreFetcher {
	return &StoreFetcher{store: store}
}

// Source implements catalog.Fetcher
func (f *StoreFetcher) Source() string {
	return "store"
}

// Fetch loads the active catalog for a category. A category with no active
// snapshot resolves to an empty catalog, not an error.
func (f *StoreFetcher) Fetch(ctx context.Context, category types.Category) (*types.Catalog, error) {
	snap, err := f.store.GetActiveSnapshot(ctx, category)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return &types.Catalog{
			Category:  category,
			Currency:  types.CurrencyIDR,
			Source:    "store",
			FetchedAt: time.Now().UTC(),
		}, nil
	}
	return f.store.LoadCatalog(ctx, snap.ID)
}
