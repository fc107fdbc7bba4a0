// Package db provides the catalog snapshot store.
// Snapshots are immutable: ingestion writes a new snapshot and flips the
// active flag, it never rewrites rows in place.
package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studycost/core/types"
)

// CatalogSnapshot is a point-in-time, content-addressed catalog version
type CatalogSnapshot struct {
	// ID uniquely identifies this snapshot
	ID uuid.UUID `json:"id"`

	// Category is the pricing category this snapshot covers
	Category types.Category `json:"category"`

	// Source indicates where the catalog came from (remote, seed)
	Source string `json:"source"`

	// Hash is the content hash over the normalized options
	Hash string `json:"hash"`

	// Currency is the catalog base currency
	Currency types.Currency `json:"currency"`

	// FetchedAt is when the source was fetched
	FetchedAt time.Time `json:"fetched_at"`

	// IsActive marks the snapshot currently served for its category
	IsActive bool `json:"is_active"`

	// OptionCount is the number of options in the snapshot
	OptionCount int `json:"option_count"`
}

// CatalogStore persists catalog snapshots and their options
type CatalogStore interface {
	// EnsureSchema creates the storage schema if missing
	EnsureSchema(ctx context.Context) error

	// CreateSnapshot inserts a snapshot together with its options
	CreateSnapshot(ctx context.Context, snapshot *CatalogSnapshot, options []types.PriceOption) error

	// ActivateSnapshot marks a snapshot active and deactivates its siblings
	ActivateSnapshot(ctx context.Context, id uuid.UUID) error

	// GetActiveSnapshot returns the active snapshot for a category, nil when none
	GetActiveSnapshot(ctx context.Context, category types.Category) (*CatalogSnapshot, error)

	// FindSnapshotByHash returns an existing snapshot with the same content, nil when none
	FindSnapshotByHash(ctx context.Context, category types.Category, hash string) (*CatalogSnapshot, error)

	// ListSnapshots returns the snapshots for a category, newest first
	ListSnapshots(ctx context.Context, category types.Category) ([]*CatalogSnapshot, error)

	// LoadCatalog materializes the options of a snapshot as a catalog
	LoadCatalog(ctx context.Context, id uuid.UUID) (*types.Catalog, error)

	// Close releases the underlying connections
	Close() error
}
