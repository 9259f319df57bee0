package pdftext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"nesdc-backend/internal/components/assert"
	"nesdc-backend/internal/components/telemetry"
	"net/url"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	report_extractor_fetch    = "extractor.fetch"
	report_extractor_strategy = "extractor.strategy"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrTooLarge         = errors.New("document too large")
)

const defaultMaxBytes = 50 << 20

type Options struct {
	// OcrEndpoint enables the OCR tier when it is not empty.
	OcrEndpoint string
	// AllowedHosts restricts which hosts documents are downloaded from, empty allows any host.
	AllowedHosts []string
	// MaxBytes caps the size of a downloaded document, defaults to 50MB.
	MaxBytes int64
	// LineTolerance is passed to LayoutStrategy.
	LineTolerance float64
}

// Extractor downloads a result document and runs it through a chain of text
// extraction strategies, stopping at the first one that yields text.
type Extractor struct {
	http       *resty.Client
	opts       Options
	strategies []Strategy
	tel        telemetry.API
}

// DefaultStrategies is layout-aware extraction, then plain extraction, then OCR.
func DefaultStrategies(http *resty.Client, opts Options) []Strategy {
	return []Strategy{
		LayoutStrategy{LineTolerance: opts.LineTolerance},
		PlainStrategy{},
		OCRStrategy{Endpoint: opts.OcrEndpoint, Http: http},
	}
}

func NewExtractor(http *resty.Client, opts Options, tel telemetry.API) *Extractor {
	return NewExtractorWithStrategies(http, opts, tel, DefaultStrategies(http, opts))
}

func NewExtractorWithStrategies(http *resty.Client, opts Options, tel telemetry.API, strategies []Strategy) *Extractor {
	assert.NotNil(http)
	assert.NotNil(tel)

	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	return &Extractor{
		http:       http,
		opts:       opts,
		strategies: strategies,
		tel:        telemetry.NewScopedAPI("pdftext", tel),
	}
}

func (e *Extractor) allowed(link *url.URL) bool {
	if len(e.opts.AllowedHosts) == 0 {
		return true
	}
	return slices.Contains(e.opts.AllowedHosts, link.Host)
}

// Fetch downloads the document at rawUrl.
func (e *Extractor) Fetch(ctx context.Context, rawUrl string) (Document, error) {
	link, err := url.Parse(rawUrl)
	if err != nil || link.Scheme == "" || link.Host == "" {
		return Document{}, fmt.Errorf("invalid url %q", rawUrl)
	}
	if !e.allowed(link) {
		return Document{}, fmt.Errorf("host %s is not allowed", link.Host)
	}

	res, err := e.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(link.String())
	if err != nil {
		return Document{}, err
	}
	body := res.RawBody()
	defer body.Close()

	if !res.IsSuccess() {
		return Document{}, fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status())
	}

	data, err := io.ReadAll(io.LimitReader(body, e.opts.MaxBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > e.opts.MaxBytes {
		return Document{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, e.opts.MaxBytes)
	}
	return Document{Url: link.String(), Data: data}, nil
}

// ExtractDocument runs the strategy chain over an already fetched document.
// It returns false when no strategy produced text.
func (e *Extractor) ExtractDocument(ctx context.Context, doc Document) (string, bool) {
	for _, strategy := range e.strategies {
		if ctx.Err() != nil {
			return "", false
		}

		text, err := strategy.Extract(ctx, doc)
		if err != nil {
			e.tel.ReportWarning(
				report_extractor_strategy,
				fmt.Errorf("%s: %w", strategy.Name(), err),
				doc.Url,
			)
			continue
		}
		if strings.TrimSpace(text) == "" {
			e.tel.ReportDebug("strategy yielded no text", strategy.Name(), doc.Url)
			continue
		}

		e.tel.ReportDebug("strategy yielded text", strategy.Name(), doc.Url, len(text))
		return text, true
	}
	return "", false
}

// Extract downloads the document at rawUrl and extracts its text.
// Every failure degrades to ("", false).
func (e *Extractor) Extract(ctx context.Context, rawUrl string) (string, bool) {
	doc, err := e.Fetch(ctx, rawUrl)
	if err != nil {
		e.tel.ReportWarning(report_extractor_fetch, err, rawUrl)
		return "", false
	}
	return e.ExtractDocument(ctx, doc)
}
