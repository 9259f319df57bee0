package nesdc

import (
	"context"
	"fmt"
	"nesdc-backend/internal/components/telemetry"
	"nesdc-backend/lib/pdftext"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_scraper_list_page = "scraper.list-page"
	report_scraper_detail    = "scraper.detail"
	report_scraper_entries   = "scraper.entries"
)

// Scraper walks the poll listing and enriches each entry with its detail page.
// Pages and entries are processed one at a time in listing order.
type Scraper struct {
	client *client
	parser DetailParser

	tel telemetry.API
}

// NewScraper returns an error only if the options are unusable.
func NewScraper(opts Options, tel telemetry.API) (*Scraper, error) {
	tel = telemetry.NewScopedAPI("nesdc_scraper", tel)

	c, err := newClient(opts, tel)
	if err != nil {
		return nil, err
	}
	extractor := pdftext.NewExtractor(c.Http, pdftext.Options{
		OcrEndpoint:  opts.OcrEndpoint,
		AllowedHosts: []string{c.BaseUrl.Host},
	}, tel)

	return newScraper(c, extractor, tel), nil
}

func newScraper(c *client, extractor TextExtractor, tel telemetry.API) *Scraper {
	return &Scraper{
		client: c,
		parser: NewDetailParser(c.BaseUrl, extractor),
		tel:    tel,
	}
}

// List fetches and parses one listing page.
func (s *Scraper) List(ctx context.Context, page int) ([]ListEntry, error) {
	doc, err := s.client.ListPage(ctx, page)
	if err != nil {
		return nil, err
	}
	return ParseList(doc, s.client.BaseUrl), nil
}

// DetailDocument fetches the markup of a detail page.
func (s *Scraper) DetailDocument(ctx context.Context, link string) (*goquery.Document, error) {
	return s.client.Document(ctx, link)
}

// Detail fetches and parses one detail page.
func (s *Scraper) Detail(ctx context.Context, link string, includeText bool) (DetailRecord, error) {
	doc, err := s.DetailDocument(ctx, link)
	if err != nil {
		return DetailRecord{}, err
	}
	return s.parser.Parse(ctx, doc, includeText), nil
}

// Enrich collects the entries of the first `pages` listing pages, keeps the
// first `limit` of them and attaches the detail record of each.
//
// Pages and detail pages that fail to load are skipped and reported, they
// never fail the call. The only error returned is the context's, together with
// the entries enriched so far.
func (s *Scraper) Enrich(ctx context.Context, pages, limit int, includeText bool) ([]EnrichedEntry, error) {
	var entries []ListEntry
	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return []EnrichedEntry{}, err
		}

		list, err := s.List(ctx, page)
		if err != nil {
			s.tel.ReportWarning(
				report_scraper_list_page,
				fmt.Errorf("page %d: %w", page, err),
			)
			continue
		}
		entries = append(entries, list...)
	}

	limit = max(limit, 0)
	if len(entries) > limit {
		entries = entries[:limit]
	}

	enriched := make([]EnrichedEntry, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return enriched, err
		}

		result := EnrichedEntry{ListEntry: entry}
		detail, err := s.Detail(ctx, entry.SourceUrl, includeText)
		if err != nil {
			s.tel.ReportWarning(
				report_scraper_detail,
				fmt.Errorf("fetch: %w", err),
				entry.SourceUrl,
			)
		} else {
			result.Detail = &detail
		}
		enriched = append(enriched, result)
	}

	s.tel.ReportCount(report_scraper_entries, int64(len(enriched)))
	return enriched, nil
}
