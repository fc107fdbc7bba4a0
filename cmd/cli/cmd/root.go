// Package cmd provides the CLI commands for studycost.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"studycost/internal/config"
	"studycost/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "studycost",
	Short: "Estimate the total cost of studying abroad",
	Long: `studycost is a cost estimation tool for study-abroad programs.

It combines tuition, agency service fees, insurance, visa fees and
optional add-on services into a single rupiah total, resolved against
live pricing catalogs.

Examples:
  studycost estimate --service-fee standard --insurance basic --terms 4 --tuition 25000000
  studycost catalog list
  studycost catalog refresh SERVICE_FEE`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.studycost.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	// Initialize logging
	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("studycost version 1.0.0")
	},
}

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		fmt.Printf("base currency:   %s\n", cfg.Pricing.BaseCurrency)
		fmt.Printf("endpoint:        %s\n", orDefault(cfg.Pricing.EndpointURL, "(seed files)"))
		fmt.Printf("seed dir:        %s\n", cfg.Pricing.SeedDir)
		fmt.Printf("listen address:  %s\n", cfg.Server.Address)
		fmt.Printf("database:        %s\n", orDefault(cfg.Database.URL, "(disabled)"))
		fmt.Printf("cache:           %v\n", cfg.Cache.Enabled)
	},
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
