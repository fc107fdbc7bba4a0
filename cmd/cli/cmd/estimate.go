package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"studycost/core/catalog"
	"studycost/core/currency"
	"studycost/core/estimate"
	"studycost/core/types"
	"studycost/export"
	"studycost/internal/config"
	"studycost/providers/remote"
	"studycost/providers/seed"
)

var (
	estServiceFee string
	estInsurance  string
	estVisa       string
	estAddons     []string
	estTuition    string
	estTerms      int
	estRate       string
	estJSON       bool
	estExportPath string
	estFile       string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Compute a study cost estimate",
	Long: `Compute a study cost estimate from the current pricing catalogs.

Option keys that no longer exist in the catalog contribute zero, and
malformed amounts are treated as zero, so the command always produces
a total.`,
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().StringVar(&estServiceFee, "service-fee", "", "service fee option key")
	estimateCmd.Flags().StringVar(&estInsurance, "insurance", "", "insurance option key")
	estimateCmd.Flags().StringVar(&estVisa, "visa", "", "visa option key")
	estimateCmd.Flags().StringSliceVar(&estAddons, "addon", nil, "addon option key (repeatable)")
	estimateCmd.Flags().StringVar(&estTuition, "tuition", "0", "tuition per term")
	estimateCmd.Flags().IntVar(&estTerms, "terms", 0, "number of terms")
	estimateCmd.Flags().StringVar(&estRate, "rate", "1", "exchange rate applied to the subtotal")
	estimateCmd.Flags().BoolVar(&estJSON, "json", false, "emit the result as JSON")
	estimateCmd.Flags().StringVar(&estExportPath, "export", "", "write a text summary to this file")
	estimateCmd.Flags().StringVar(&estFile, "file", "", "read the selection from an HCL file instead of flags")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	refresher := catalog.NewRefresher(cliFetcher())
	catalogs := refresher.RefreshAll(ctx, types.WellKnownCategories()...)
	for _, category := range types.WellKnownCategories() {
		if msg, failed := refresher.LastFailure(category); failed {
			fmt.Fprintf(os.Stderr, "warning: %s catalog unavailable: %s\n", category, msg)
		}
	}

	var sel *estimate.Selection
	if estFile != "" {
		loaded, err := loadSelectionFile(estFile)
		if err != nil {
			return err
		}
		sel = loaded
	} else {
		sel = estimate.NewSelection()
		sel.SetServiceFee(estServiceFee)
		sel.SetInsurance(estInsurance)
		sel.SetVisa(estVisa)
		for _, code := range estAddons {
			sel.SetAddon(code, true)
		}
		sel.SetTuitionPerTerm(parseAmount(estTuition))
		sel.SetTermCount(estTerms)
		sel.SetExchangeRate(parseAmount(estRate))
	}

	result := estimate.Compute(sel, catalogs)

	if estExportPath != "" {
		summary := export.BuildSummary(result)
		if err := os.WriteFile(estExportPath, []byte(summary.RenderText()), 0644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Printf("Summary written to %s\n", estExportPath)
	}

	if estJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	printBreakdown(result)
	return nil
}

func printBreakdown(result estimate.Result) {
	fmt.Println("Estimasi Biaya Studi")
	fmt.Println("--------------------")
	fmt.Printf("%-24s %s\n", "Biaya kuliah", currency.FormatDecimal(result.TuitionTotal))
	fmt.Printf("%-24s %s\n", "Biaya layanan", currency.FormatDecimal(result.ServiceFeeAmount))
	fmt.Printf("%-24s %s\n", "Asuransi", currency.FormatDecimal(result.InsuranceAmount))
	fmt.Printf("%-24s %s\n", "Visa", currency.FormatDecimal(result.VisaAmount))
	fmt.Printf("%-24s %s\n", "Layanan tambahan", currency.FormatDecimal(result.AddonsTotal))
	fmt.Println("--------------------")
	fmt.Printf("%-24s %s\n", "Total", currency.FormatDecimal(result.Total))
}

// cliFetcher builds the same provider chain the server uses, minus the cache
func cliFetcher() catalog.Fetcher {
	cfg := config.Get()
	if cfg.Pricing.EndpointURL != "" {
		return remote.NewClient(&remote.Config{
			EndpointURL: cfg.Pricing.EndpointURL,
			PageSize:    cfg.Pricing.PageSize,
		})
	}
	return seed.NewProvider(cfg.Pricing.SeedDir)
}

// parseAmount reads a decimal flag value, treating malformed input as zero
func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
