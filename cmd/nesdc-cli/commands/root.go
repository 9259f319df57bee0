package commands

import (
	"context"
	"fmt"
	"log/slog"
	"nesdc-backend/internal/components/telemetry"
	"nesdc-backend/internal/config"
	"nesdc-backend/internal/scrapers/nesdc"
	libtelemetry "nesdc-backend/lib/telemetry"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
)

var rootCmd = &cobra.Command{
	Use:   "nesdc-cli",
	Short: "nesdc-cli is a CLI for scraping and debugging the NESDC poll disclosures.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if *verbose {
			libtelemetry.InitSlog(true)
			slog.Debug("verbose logging enabled")
		}
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "Path to the config file.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadScraper() (config.Config, *nesdc.Scraper, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("read config: %w", err)
	}
	scraper, err := nesdc.NewScraper(cfg.ScraperOptions(), telemetry.SlogAPI{})
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init scraper: %w", err)
	}
	return cfg, scraper, nil
}
