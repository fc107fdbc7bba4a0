// Package catalog - Refresh ordering tests
package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"studycost/core/types"
)

// scriptedFetcher serves catalogs per category and can be told to fail or
// to block until released, to simulate out-of-order network completion.
type scriptedFetcher struct {
	mu       sync.Mutex
	catalogs map[types.Category]*types.Catalog
	fail     map[types.Category]bool
	gate     chan struct{}
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{
		catalogs: make(map[types.Category]*types.Catalog),
		fail:     make(map[types.Category]bool),
	}
}

func (f *scriptedFetcher) Source() string { return "scripted" }

func (f *scriptedFetcher) Fetch(ctx context.Context, category types.Category) (*types.Catalog, error) {
	f.mu.Lock()
	gate := f.gate
	f.gate = nil
	fail := f.fail[category]
	cat := f.catalogs[category]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return nil, fmt.Errorf("scripted failure for %s", category)
	}
	if cat == nil {
		cat = &types.Catalog{Category: category}
	}
	return cat, nil
}

func (f *scriptedFetcher) serve(category types.Category, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalogs[category] = &types.Catalog{
		Category: category,
		Options:  []types.PriceOption{{Code: "OPT", Label: "Option", Amount: decimal.NewFromInt(amount)}},
	}
}

// TestRefreshCommitsCatalog proves a successful refresh becomes visible
func TestRefreshCommitsCatalog(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.serve(types.CategoryVisa, 300000)
	r := NewRefresher(fetcher)

	cat := r.Refresh(context.Background(), types.CategoryVisa)

	if cat.Len() != 1 {
		t.Fatalf("Expected 1 option, got %d", cat.Len())
	}
	if got := r.Catalog(types.CategoryVisa); got.Len() != 1 {
		t.Errorf("Expected committed catalog visible, got %d options", got.Len())
	}
	if _, failed := r.LastFailure(types.CategoryVisa); failed {
		t.Error("Expected no failure state after successful refresh")
	}
}

// TestRefreshFailureDegradesToEmpty proves fetch failure yields an empty
// catalog with an informational failure state, never an error
func TestRefreshFailureDegradesToEmpty(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.fail[types.CategoryAddon] = true
	r := NewRefresher(fetcher)

	cat := r.Refresh(context.Background(), types.CategoryAddon)

	if cat.Len() != 0 {
		t.Errorf("Expected empty catalog on failure, got %d options", cat.Len())
	}
	msg, failed := r.LastFailure(types.CategoryAddon)
	if !failed || msg == "" {
		t.Errorf("Expected recorded failure state, got %q (failed=%v)", msg, failed)
	}

	// Recovery clears the failure state
	fetcher.fail[types.CategoryAddon] = false
	fetcher.serve(types.CategoryAddon, 100000)
	r.Refresh(context.Background(), types.CategoryAddon)
	if _, failed := r.LastFailure(types.CategoryAddon); failed {
		t.Error("Expected failure state cleared after recovery")
	}
}

// TestRefreshLastIssuedWins proves a superseded fetch cannot overwrite the
// catalog committed by a later refresh
func TestRefreshLastIssuedWins(t *testing.T) {
	fetcher := newScriptedFetcher()
	r := NewRefresher(fetcher)

	// First refresh blocks in flight serving the stale amount
	fetcher.serve(types.CategoryServiceFee, 111)
	release := make(chan struct{})
	fetcher.gate = release

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Refresh(context.Background(), types.CategoryServiceFee)
	}()

	// Second refresh is issued later and completes first
	fetcher.serve(types.CategoryServiceFee, 222)
	// Wait until the first fetch is actually blocked before issuing
	for {
		fetcher.mu.Lock()
		blocked := fetcher.gate == nil
		fetcher.mu.Unlock()
		if blocked {
			break
		}
		time.Sleep(time.Millisecond)
	}
	r.Refresh(context.Background(), types.CategoryServiceFee)

	// Release the stale fetch and let it attempt to commit
	close(release)
	<-done

	amount, ok := r.Catalog(types.CategoryServiceFee).Lookup("OPT")
	if !ok {
		t.Fatal("Expected OPT option present")
	}
	if !amount.Equal(decimal.NewFromInt(222)) {
		t.Errorf("Expected last-issued refresh to win with 222, got %s", amount)
	}
}

// TestSnapshotIsCopy proves snapshots are detached from later refreshes
func TestSnapshotIsCopy(t *testing.T) {
	fetcher := newScriptedFetcher()
	fetcher.serve(types.CategoryInsurance, 150000)
	r := NewRefresher(fetcher)
	r.Refresh(context.Background(), types.CategoryInsurance)

	snap := r.Snapshot()
	fetcher.serve(types.CategoryInsurance, 999999)
	r.Refresh(context.Background(), types.CategoryInsurance)

	amount, _ := snap.Get(types.CategoryInsurance).Lookup("OPT")
	if !amount.Equal(decimal.NewFromInt(150000)) {
		t.Errorf("Expected snapshot unchanged at 150000, got %s", amount)
	}
}
