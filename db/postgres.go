// Package db - Postgres-backed catalog store
package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"studycost/core/types"
	"studycost/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS catalog_snapshots (
	id           UUID PRIMARY KEY,
	category     TEXT NOT NULL,
	source       TEXT NOT NULL,
	hash         TEXT NOT NULL,
	currency     TEXT NOT NULL,
	fetched_at   TIMESTAMPTZ NOT NULL,
	is_active    BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_snapshots_category ON catalog_snapshots (category, fetched_at DESC);
CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_hash ON catalog_snapshots (category, hash);

CREATE TABLE IF NOT EXISTS catalog_options (
	snapshot_id  UUID NOT NULL REFERENCES catalog_snapshots(id) ON DELETE CASCADE,
	position     INT NOT NULL,
	code         TEXT NOT NULL,
	label        TEXT NOT NULL,
	amount       NUMERIC(18,2) NOT NULL,
	PRIMARY KEY (snapshot_id, code)
);
`

// PostgresStore implements CatalogStore over Postgres
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres opens a Postgres-backed store
func OpenPostgres(url string, maxOpenConns int) (*PostgresStore, error) {
	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errors.Store("opening database", err)
	}
	if maxOpenConns > 0 {
		conn.SetMaxOpenConns(maxOpenConns)
	}
	return &PostgresStore{db: conn}, nil
}

// EnsureSchema creates the storage schema if missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Store("creating schema", err)
	}
	return nil
}

// CreateSnapshot inserts a snapshot and its options in one transaction
func (s *PostgresStore) CreateSnapshot(ctx context.Context, snapshot *CatalogSnapshot, options []types.PriceOption) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Store("beginning transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO catalog_snapshots (id, category, source, hash, currency, fetched_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snapshot.ID, snapshot.Category.String(), snapshot.Source, snapshot.Hash,
		snapshot.Currency.String(), snapshot.FetchedAt, snapshot.IsActive)
	if err != nil {
		return errors.Store("inserting snapshot", err)
	}

	for i, opt := range options {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO catalog_options (snapshot_id, position, code, label, amount)
			 VALUES ($1, $2, $3, $4, $5)`,
			snapshot.ID, i, opt.Code, opt.Label, opt.Amount)
		if err != nil {
			return errors.Store("inserting option", err).WithContext("code", opt.Code)
		}
	}

	snapshot.OptionCount = len(options)
	if err := tx.Commit(); err != nil {
		return errors.Store("committing snapshot", err)
	}
	return nil
}

// ActivateSnapshot marks a snapshot active and deactivates its siblings
func (s *PostgresStore) ActivateSnapshot(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Store("beginning transaction", err)
	}
	defer tx.Rollback()

	var category string
	if err := tx.QueryRowContext(ctx,
		`SELECT category FROM catalog_snapshots WHERE id = $1`, id).Scan(&category); err != nil {
		if err == sql.ErrNoRows {
			return errors.NotFound("snapshot", id.String())
		}
		return errors.Store("resolving snapshot", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE catalog_snapshots SET is_active = FALSE WHERE category = $1 AND is_active`, category); err != nil {
		return errors.Store("deactivating siblings", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE catalog_snapshots SET is_active = TRUE WHERE id = $1`, id); err != nil {
		return errors.Store("activating snapshot", err)
	}

	return tx.Commit()
}

// GetActiveSnapshot returns the active snapshot for a category, nil when none
func (s *PostgresStore) GetActiveSnapshot(ctx context.Context, category types.Category) (*CatalogSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT s.id, s.category, s.source, s.hash, s.currency, s.fetched_at, s.is_active,
		        (SELECT COUNT(*) FROM catalog_options o WHERE o.snapshot_id = s.id)
		 FROM catalog_snapshots s
		 WHERE s.category = $1 AND s.is_active`, category.String())
	return scanSnapshot(row)
}

// FindSnapshotByHash returns an existing snapshot with the same content hash
func (s *PostgresStore) FindSnapshotByHash(ctx context.Context, category types.Category, hash string) (*CatalogSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT s.id, s.category, s.source, s.hash, s.currency, s.fetched_at, s.is_active,
		        (SELECT COUNT(*) FROM catalog_options o WHERE o.snapshot_id = s.id)
		 FROM catalog_snapshots s
		 WHERE s.category = $1 AND s.hash = $2`, category.String(), hash)
	return scanSnapshot(row)
}

// ListSnapshots returns the snapshots for a category, newest first
func (s *PostgresStore) ListSnapshots(ctx context.Context, category types.Category) ([]*CatalogSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.category, s.source, s.hash, s.currency, s.fetched_at, s.is_active,
		        (SELECT COUNT(*) FROM catalog_options o WHERE o.snapshot_id = s.id)
		 FROM catalog_snapshots s
		 WHERE s.category = $1
		 ORDER BY s.fetched_at DESC`, category.String())
	if err != nil {
		return nil, errors.Store("listing snapshots", err)
	}
	defer rows.Close()

	var snapshots []*CatalogSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// LoadCatalog materializes the options of a snapshot as a catalog
func (s *PostgresStore) LoadCatalog(ctx context.Context, id uuid.UUID) (*types.Catalog, error) {
	var cat types.Catalog
	var category, currency string
	err := s.db.QueryRowContext(ctx,
		`SELECT category, currency, fetched_at FROM catalog_snapshots WHERE id = $1`, id).
		Scan(&category, &currency, &cat.FetchedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("snapshot", id.String())
		}
		return nil, errors.Store("loading snapshot", err)
	}
	cat.Category = types.Category(category)
	cat.Currency = types.Currency(currency)
	cat.Source = "store"

	rows, err := s.db.QueryContext(ctx,
		`SELECT code, label, amount FROM catalog_options WHERE snapshot_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, errors.Store("loading options", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt types.PriceOption
		var amount string
		if err := rows.Scan(&opt.Code, &opt.Label, &amount); err != nil {
			return nil, errors.Store("scanning option", err)
		}
		opt.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, errors.Store("parsing amount", err)
		}
		cat.Options = append(cat.Options, opt)
	}
	return &cat, rows.Err()
}

// Close releases the underlying connections
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*CatalogSnapshot, error) {
	var snap CatalogSnapshot
	var category, currency string
	err := row.Scan(&snap.ID, &category, &snap.Source, &snap.Hash, &currency,
		&snap.FetchedAt, &snap.IsActive, &snap.OptionCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Store("scanning snapshot", err)
	}
	snap.Category = types.Category(category)
	snap.Currency = types.Currency(currency)
	return &snap, nil
}
