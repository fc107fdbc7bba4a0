// Package cmd - Catalog and snapshot management commands
package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"studycost/core/catalog"
	"studycost/core/currency"
	"studycost/core/types"
	"studycost/db"
	"studycost/db/ingestion"
	"studycost/internal/config"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Pricing catalog management",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List catalog options",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogList,
}

var catalogRefreshCmd = &cobra.Command{
	Use:   "refresh <category>",
	Short: "Fetch a category and persist it as a snapshot",
	Long: `Fetch a category from the configured provider and persist it as a
database snapshot. Requires a configured database.

The new snapshot is activated immediately unless --no-activate is set.
Identical content is deduplicated against existing snapshots.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogRefresh,
}

var catalogSnapshotsCmd = &cobra.Command{
	Use:   "snapshots <category>",
	Short: "List stored snapshots for a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogSnapshots,
}

var catalogActivateCmd = &cobra.Command{
	Use:   "activate <snapshot-id>",
	Short: "Activate a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogActivate,
}

var catalogNoActivate bool

func init() {
	catalogRefreshCmd.Flags().BoolVar(&catalogNoActivate, "no-activate", false, "store the snapshot without activating it")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogRefreshCmd)
	catalogCmd.AddCommand(catalogSnapshotsCmd)
	catalogCmd.AddCommand(catalogActivateCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	categories := types.WellKnownCategories()
	if len(args) == 1 {
		categories = []types.Category{types.Category(strings.ToUpper(args[0]))}
	}

	refresher := catalog.NewRefresher(cliFetcher())
	for _, category := range categories {
		cat := refresher.Refresh(ctx, category)
		fmt.Printf("%s (%d options)\n", category, cat.Len())
		if msg, failed := refresher.LastFailure(category); failed {
			fmt.Printf("  unavailable: %s\n", msg)
			continue
		}
		for _, opt := range cat.Options {
			fmt.Printf("  %-24s %-32s %s\n", opt.Code, opt.Label, currency.FormatDecimal(opt.Amount))
		}
	}
	return nil
}

func runCatalogRefresh(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	category := types.Category(strings.ToUpper(args[0]))
	ingestor := ingestion.NewIngestor(cliFetcher(), store)
	snapshot, err := ingestor.IngestCategory(ctx, category, !catalogNoActivate)
	if err != nil {
		return err
	}

	fmt.Printf("Snapshot %s stored for %s (%d options, active=%v)\n",
		snapshot.ID, snapshot.Category, snapshot.OptionCount, snapshot.IsActive)
	return nil
}

func runCatalogSnapshots(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	category := types.Category(strings.ToUpper(args[0]))
	snapshots, err := store.ListSnapshots(ctx, category)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Printf("No snapshots for %s\n", category)
		return nil
	}

	for _, s := range snapshots {
		marker := " "
		if s.IsActive {
			marker = "*"
		}
		fmt.Printf("%s %s  %s  %3d options  %s\n",
			marker, s.ID, s.FetchedAt.Format(time.RFC3339), s.OptionCount, s.Source)
	}
	return nil
}

func runCatalogActivate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid snapshot id: %w", err)
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ActivateSnapshot(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Snapshot %s activated\n", id)
	return nil
}

func openStore(ctx context.Context) (db.CatalogStore, error) {
	cfg := config.Get()
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("no database configured; set DATABASE_URL or the database.url config field")
	}
	store, err := db.OpenPostgres(cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
