// Package catalog - Catalog refresh with last-write-wins ordering
package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"studycost/core/types"
	"studycost/internal/logging"
)

// Fetcher fetches the catalog for one category from a pricing source
type Fetcher interface {
	// Fetch returns the normalized catalog for a category
	Fetch(ctx context.Context, category types.Category) (*types.Catalog, error)

	// Source names the pricing source for logging and catalog metadata
	Source() string
}

// Refresher holds the current catalog snapshot per category and guards
// against out-of-order fetch completion. Fetches are independent per
// category; only the last-issued refresh for a category may commit.
type Refresher struct {
	mu          sync.RWMutex
	fetcher     Fetcher
	catalogs    types.CatalogSet
	generations map[types.Category]uint64
	failures    map[types.Category]string
	log         *zap.Logger
}

// NewRefresher creates a refresher over a pricing source
func NewRefresher(fetcher Fetcher) *Refresher {
	return &Refresher{
		fetcher:     fetcher,
		catalogs:    make(types.CatalogSet),
		generations: make(map[types.Category]uint64),
		failures:    make(map[types.Category]string),
		log:         logging.Named("catalog"),
	}
}

// Refresh fetches and commits the catalog for a category. A fetch failure
// degrades the category to an empty catalog and records an informational
// failure state; it never returns an error to the caller because the
// calculator must stay usable with whatever catalogs remain.
func (r *Refresher) Refresh(ctx context.Context, category types.Category) *types.Catalog {
	token := r.issueToken(category)

	fetched, err := r.fetcher.Fetch(ctx, category)
	if err != nil {
		r.log.Warn("catalog fetch failed, degrading to empty",
			zap.String("category", category.String()),
			zap.Error(err))
		fetched = &types.Catalog{
			Category:  category,
			Options:   nil,
			Currency:  types.CurrencyIDR,
			Source:    r.fetcher.Source(),
			FetchedAt: time.Now().UTC(),
		}
		r.commit(category, token, fetched, err.Error())
		return fetched
	}

	fetched.Source = r.fetcher.Source()
	if !r.commit(category, token, fetched, "") {
		// A newer refresh was issued while this one was in flight; the
		// committed snapshot wins and this result is discarded.
		return r.Catalog(category)
	}
	return fetched
}

// RefreshAll refreshes every listed category
func (r *Refresher) RefreshAll(ctx context.Context, categories ...types.Category) types.CatalogSet {
	if len(categories) == 0 {
		categories = types.WellKnownCategories()
	}
	for _, category := range categories {
		r.Refresh(ctx, category)
	}
	return r.Snapshot()
}

// Catalog returns the current catalog for a category, nil when never fetched
func (r *Refresher) Catalog(category types.Category) *types.Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalogs.Get(category)
}

// Snapshot returns a copy of the current catalog set
func (r *Refresher) Snapshot() types.CatalogSet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(types.CatalogSet, len(r.catalogs))
	for category, cat := range r.catalogs {
		snapshot[category] = cat
	}
	return snapshot
}

// LastFailure reports the informational failure state for a category
func (r *Refresher) LastFailure(category types.Category) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.failures[category]
	return msg, ok
}

// issueToken bumps the generation counter for a category and returns the
// token the eventual commit must match
func (r *Refresher) issueToken(category types.Category) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations[category]++
	return r.generations[category]
}

// commit stores a fetched catalog if its token is still the latest issued
func (r *Refresher) commit(category types.Category, token uint64, cat *types.Catalog, failure string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.generations[category] != token {
		return false
	}

	r.catalogs.Put(cat)
	if failure == "" {
		delete(r.failures, category)
	} else {
		r.failures[category] = failure
	}
	return true
}
