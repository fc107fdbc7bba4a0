// Package ingestion - Catalog ingestion pipeline
// Strictly separated from estimation: fetch → normalize → snapshot → activate.
package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studycost/core/catalog"
	"studycost/core/types"
	"studycost/db"
	"studycost/internal/errors"
	"studycost/internal/logging"
)

// Ingestor pulls catalogs from a pricing source into the snapshot store
type Ingestor struct {
	fetcher catalog.Fetcher
	store   db.CatalogStore
	log     *zap.Logger
}

// NewIngestor creates an ingestion pipeline
func NewIngestor(fetcher catalog.Fetcher, store db.CatalogStore) *Ingestor {
	return &Ingestor{
		fetcher: fetcher,
		store:   store,
		log:     logging.Named("ingestion"),
	}
}

// IngestCategory fetches one category and persists it as a snapshot.
// Content-identical catalogs dedupe against the existing snapshot instead
// of writing a new one. The new (or existing) snapshot is activated when
// activate is true.
func (i *Ingestor) IngestCategory(ctx context.Context, category types.Category, activate bool) (*db.CatalogSnapshot, error) {
	fetched, err := i.fetcher.Fetch(ctx, category)
	if err != nil {
		return nil, errors.Provider("fetching catalog for ingestion", err).
			WithContext("category", category.String())
	}

	hash := contentHash(fetched.Options)

	existing, err := i.store.FindSnapshotByHash(ctx, category, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		i.log.Debug("catalog content unchanged, reusing snapshot",
			zap.String("category", category.String()),
			zap.String("snapshot", existing.ID.String()))
		if activate && !existing.IsActive {
			if err := i.store.ActivateSnapshot(ctx, existing.ID); err != nil {
				return nil, err
			}
			existing.IsActive = true
		}
		return existing, nil
	}

	snapshot := &db.CatalogSnapshot{
		ID:        uuid.New(),
		Category:  category,
		Source:    i.fetcher.Source(),
		Hash:      hash,
		Currency:  fetched.Currency,
		FetchedAt: fetched.FetchedAt,
	}
	if err := i.store.CreateSnapshot(ctx, snapshot, fetched.Options); err != nil {
		return nil, err
	}

	if activate {
		if err := i.store.ActivateSnapshot(ctx, snapshot.ID); err != nil {
			return nil, err
		}
		snapshot.IsActive = true
	}

	i.log.Info("catalog snapshot ingested",
		zap.String("category", category.String()),
		zap.String("snapshot", snapshot.ID.String()),
		zap.Int("options", len(fetched.Options)),
		zap.Bool("active", snapshot.IsActive))

	return snapshot, nil
}

// IngestAll ingests every listed category, continuing past per-category
// failures so one broken source cannot block the rest
func (i *Ingestor) IngestAll(ctx context.Context, activate bool, categories ...types.Category) ([]*db.CatalogSnapshot, error) {
	if len(categories) == 0 {
		categories = types.WellKnownCategories()
	}

	var snapshots []*db.CatalogSnapshot
	var firstErr error
	for _, category := range categories {
		snap, err := i.IngestCategory(ctx, category, activate)
		if err != nil {
			i.log.Warn("category ingestion failed",
				zap.String("category", category.String()),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, firstErr
}

// contentHash computes a deterministic hash over normalized options.
// Options are sorted by code so provider ordering does not change identity.
func contentHash(options []types.PriceOption) string {
	lines := make([]string, 0, len(options))
	for _, opt := range options {
		lines = append(lines, opt.Code+"\x00"+opt.Label+"\x00"+opt.Amount.String())
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}
