package polls

import (
	"fmt"
	"io"
	"nesdc-backend/internal/components/telemetry"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const report_relay_forward = "relay.forward"

const (
	relayUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	relayAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// headers that describe the upstream connection rather than the content
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Content-Length",
}

// Relay forwards GET requests to pages of a single origin, so that browsers
// can read them despite the origin sending no CORS headers.
type Relay struct {
	prefix string
	http   *resty.Client
	tel    telemetry.API
}

// NewRelay creates a relay that only forwards to urls under baseUrl.
func NewRelay(baseUrl *url.URL, timeout time.Duration, tel telemetry.API) Relay {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("user-agent", relayUserAgent)
	client.SetHeader("accept", relayAccept)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	tel = telemetry.NewScopedAPI("relay", tel)
	telemetry.InstrumentResty(client, tel)

	return Relay{
		prefix: strings.TrimSuffix(baseUrl.String(), "/") + "/",
		http:   client,
		tel:    tel,
	}
}

func setCorsHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "*")
}

func relayError(w http.ResponseWriter, code int, message string) {
	setCorsHeaders(w.Header())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, message)
}

func (r Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodOptions:
		setCorsHeaders(w.Header())
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet, http.MethodHead:
	default:
		relayError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	target := req.URL.Query().Get("url")
	if target == "" {
		relayError(w, http.StatusBadRequest, "Missing url parameter")
		return
	}
	if !strings.HasPrefix(target, r.prefix) {
		relayError(w, http.StatusForbidden, "Forbidden")
		return
	}

	res, err := r.http.R().
		SetContext(req.Context()).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		r.tel.ReportWarning(report_relay_forward, fmt.Errorf("fetch: %w", err), target)
		relayError(w, http.StatusBadGateway, "Upstream request failed")
		return
	}
	body := res.RawBody()
	defer body.Close()

	for key, values := range res.Header() {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	for _, key := range hopHeaders {
		w.Header().Del(key)
	}
	setCorsHeaders(w.Header())
	w.WriteHeader(res.StatusCode())

	if req.Method == http.MethodHead {
		return
	}
	_, err = io.Copy(w, body)
	if err != nil {
		r.tel.ReportWarning(report_relay_forward, fmt.Errorf("copy body: %w", err), target)
	}
}
