// Package cache - Caching fetcher tests
package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"studycost/core/types"
)

// countingFetcher records how many times the source is hit
type countingFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *countingFetcher) Source() string { return "counting" }

func (f *countingFetcher) Fetch(ctx context.Context, category types.Category) (*types.Catalog, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return &types.Catalog{
		Category: category,
		Options:  []types.PriceOption{{Code: "OPT", Label: "Option", Amount: decimal.NewFromInt(1000)}},
		Currency: types.CurrencyIDR,
	}, nil
}

// TestCachedFetcherServesFromCache proves a second fetch within TTL does not
// hit the source
func TestCachedFetcherServesFromCache(t *testing.T) {
	inner := &countingFetcher{}
	f := NewCachedFetcher(inner, NewMemoryCache(), time.Minute)
	ctx := context.Background()

	first, err := f.Fetch(ctx, types.CategoryAddon)
	if err != nil {
		t.Fatalf("Unexpected fetch error: %v", err)
	}
	second, err := f.Fetch(ctx, types.CategoryAddon)
	if err != nil {
		t.Fatalf("Unexpected fetch error: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("Expected 1 source call, got %d", inner.calls)
	}
	a, _ := first.Lookup("OPT")
	b, _ := second.Lookup("OPT")
	if !a.Equal(b) {
		t.Errorf("Expected identical catalogs, got %s vs %s", a, b)
	}
}

// TestCachedFetcherExpires proves expiry falls through to the source
func TestCachedFetcherExpires(t *testing.T) {
	inner := &countingFetcher{}
	mem := NewMemoryCache()
	now := time.Now()
	mem.now = func() time.Time { return now }

	f := NewCachedFetcher(inner, mem, time.Minute)
	ctx := context.Background()

	f.Fetch(ctx, types.CategoryVisa)
	now = now.Add(2 * time.Minute)
	f.Fetch(ctx, types.CategoryVisa)

	if inner.calls != 2 {
		t.Errorf("Expected expired entry to refetch, got %d calls", inner.calls)
	}
}

// TestCachedFetcherInvalidate proves invalidation forces a refetch
func TestCachedFetcherInvalidate(t *testing.T) {
	inner := &countingFetcher{}
	f := NewCachedFetcher(inner, NewMemoryCache(), time.Minute)
	ctx := context.Background()

	f.Fetch(ctx, types.CategoryServiceFee)
	f.Invalidate(ctx, types.CategoryServiceFee)
	f.Fetch(ctx, types.CategoryServiceFee)

	if inner.calls != 2 {
		t.Errorf("Expected invalidation to refetch, got %d calls", inner.calls)
	}
}

// TestCachedFetcherDropsCorruptEntries proves a corrupt cache entry is
// discarded and refetched instead of failing
func TestCachedFetcherDropsCorruptEntries(t *testing.T) {
	inner := &countingFetcher{}
	mem := NewMemoryCache()
	f := NewCachedFetcher(inner, mem, time.Minute)
	ctx := context.Background()

	mem.Set(ctx, "catalog:ADDON", "{not json", time.Minute)

	cat, err := f.Fetch(ctx, types.CategoryAddon)
	if err != nil {
		t.Fatalf("Unexpected fetch error: %v", err)
	}
	if cat.Len() != 1 {
		t.Errorf("Expected refetched catalog, got %d options", cat.Len())
	}
	if inner.calls != 1 {
		t.Errorf("Expected exactly one source call, got %d", inner.calls)
	}
}
