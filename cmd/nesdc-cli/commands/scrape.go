package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"nesdc-backend/internal/scrapers/nesdc"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapePages *int
	scrapeLimit *int
	scrapeText  *bool
	scrapeJson  *bool
)

func init() {
	scrapePages = scrapeCmd.Flags().Int("pages", 0, "Number of listing pages to read, defaults to the configured value.")
	scrapeLimit = scrapeCmd.Flags().Int("limit", 0, "Maximum number of entries to enrich, defaults to the configured value.")
	scrapeText = scrapeCmd.Flags().Bool("text", false, "Extract page and result document text.")
	scrapeJson = scrapeCmd.Flags().Bool("json", false, "Print the entries as JSON instead of a table.")
	rootCmd.AddCommand(scrapeCmd)
}

func optionalString(value *string) string {
	if value == nil {
		return "-"
	}
	return *value
}

func optionalInt(value *int) string {
	if value == nil {
		return "-"
	}
	return strconv.Itoa(*value)
}

func optionalFloat(value *float64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatFloat(*value, 'f', -1, 64) + "%p"
}

func renderEntries(out io.Writer, entries []nesdc.EnrichedEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Registration No", "Agency", "Poll", "Survey Date", "Sample", "Margin", "Attachment"})

	for _, entry := range entries {
		detail := entry.Detail
		if detail == nil {
			detail = &nesdc.DetailRecord{}
		}
		t.AppendRow(table.Row{
			entry.RegistrationNo,
			entry.Agency,
			entry.PollName,
			optionalString(detail.SurveyDate),
			optionalInt(detail.SampleSize),
			optionalFloat(detail.MarginOfError),
			optionalString(detail.ResultFileUrl),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--pages N] [--limit N] [--text] [--json]",
	Short: "Scrapes the listing and prints every enriched entry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, scraper, err := loadScraper()
		if err != nil {
			return err
		}

		pages := cfg.Pages
		if cmd.Flags().Changed("pages") {
			pages = *scrapePages
		}
		limit := cfg.Limit
		if cmd.Flags().Changed("limit") {
			limit = *scrapeLimit
		}

		t1 := time.Now()
		entries, err := scraper.Enrich(cmd.Context(), pages, limit, *scrapeText)
		if err != nil {
			return fmt.Errorf("scrape: %w", err)
		}
		slog.Info("scraping time", "seconds", time.Since(t1).Seconds(), "entries", len(entries))

		if *scrapeJson {
			return writeJSON(os.Stdout, entries)
		}
		renderEntries(os.Stdout, entries)
		return nil
	},
}
