package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/david/funding-gateway/internal/catalog"
	"github.com/david/funding-gateway/internal/config"
	"github.com/david/funding-gateway/internal/ingest"
)

var (
	useMock     bool
	sourcesFile string
	timeout     time.Duration
	cfg         config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fundingctl",
	Short: "Inspect the funding gateway's sources and catalog",
	Long: `fundingctl runs the opportunity fallback chain in-process and prints
the result.

Example usage:
  fundingctl sources              # Show configured endpoints and listings
  fundingctl list --country Kenya # Fetch and list opportunities
  fundingctl stats --mock         # Catalog statistics from mock data`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if useMock {
			cfg.UseMockData = true
		}
		if sourcesFile != "" {
			cfg.SourcesFile = sourcesFile
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "serve static mock data instead of calling remote sources")
	rootCmd.PersistentFlags().StringVar(&sourcesFile, "sources", "", "source registry YAML (default is the embedded registry)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall fetch timeout")
}

func loadRegistry() (*ingest.Registry, error) {
	return ingest.LoadRegistry(cfg.SourcesFile)
}

// fetchSnapshot runs the fallback chain once through a fresh catalog.
func fetchSnapshot(ctx context.Context) (*catalog.Snapshot, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	fetcher := ingest.NewRateLimitedFetcher(ingest.FetchConfig{})
	fetcher.BlockPrivateNetworks = cfg.BlockPrivateNetworks
	agg := ingest.NewAggregator(reg, fetcher, ingest.NewQualityFilter(cfg.QualityThreshold), cfg.Aggregator())

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return catalog.New(agg).Refresh(ctx)
}
