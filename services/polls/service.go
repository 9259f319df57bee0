package polls

import (
	"context"
	"encoding/json"
	"fmt"
	"nesdc-backend/internal/components/assert"
	"nesdc-backend/internal/components/telemetry"
	"nesdc-backend/internal/scrapers/nesdc"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"
)

const (
	report_service_polls = "service.polls"
)

// Enricher runs the scraping pipeline, implemented by *nesdc.Scraper.
type Enricher interface {
	Enrich(ctx context.Context, pages, limit int, includeText bool) ([]nesdc.EnrichedEntry, error)
}

type Options struct {
	// Pages and Limit are used when a request does not specify them.
	Pages int
	Limit int
	// Timeout bounds a single /polls request, zero means no bound.
	Timeout time.Duration
}

type Service struct {
	enricher Enricher
	relay    Relay
	opts     Options
	tel      telemetry.API
}

func NewService(enricher Enricher, relay Relay, opts Options, tel telemetry.API) Service {
	assert.NotNil(enricher)
	assert.NotNil(tel)

	return Service{
		enricher: enricher,
		relay:    relay,
		opts:     opts,
		tel:      telemetry.NewScopedAPI("polls", tel),
	}
}

// Handler serves /health, /polls and /proxy with permissive CORS.
func (s Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.Health)
	mux.HandleFunc("GET /polls", s.Polls)
	mux.Handle("/proxy", s.relay)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(mux)
}

type errorResponse struct {
	Error string `json:"error"`
}

type pollsResponse struct {
	Entries []nesdc.EnrichedEntry `json:"entries"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s Service) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return value, nil
}

// Polls handles GET /polls?pages=&limit=&includeText=, includeText is true
// unless it is exactly "false".
func (s Service) Polls(w http.ResponseWriter, r *http.Request) {
	pages, err := queryInt(r, "pages", s.opts.Pages)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	limit, err := queryInt(r, "limit", s.opts.Limit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	includeText := r.URL.Query().Get("includeText") != "false"

	ctx := r.Context()
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	entries, err := s.enricher.Enrich(ctx, pages, limit, includeText)
	if err != nil {
		s.tel.ReportWarning(report_service_polls, err, pages, limit)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if entries == nil {
		entries = []nesdc.EnrichedEntry{}
	}
	writeJSON(w, http.StatusOK, pollsResponse{Entries: entries})
}
