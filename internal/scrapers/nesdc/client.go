package nesdc

import (
	"context"
	"fmt"
	"math"
	"nesdc-backend/internal/components/assert"
	"nesdc-backend/internal/components/telemetry"
	"nesdc-backend/lib/htmlutil"
	"nesdc-backend/lib/pdftext"
	libtelemetry "nesdc-backend/lib/telemetry"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch_list     = "client.fetch-list"
	report_client_fetch_document = "client.fetch-document"
)

const (
	DefaultBaseUrl = "https://www.nesdc.go.kr"

	listPath       = "/portal/bbs/B0000005/list.do"
	listMenuNo     = "200467"
	fileDownPath   = "/portal/cmm/fms/FileDown.do"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	defaultRate    = 2
	defaultTimeout = 30 * time.Second
)

type Options struct {
	BaseUrl string
	// OcrEndpoint enables the OCR fallback when extracting result documents.
	OcrEndpoint       string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
}

type client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	tel telemetry.API
}

// ParseBaseUrl validates that baseUrl is an absolute http(s) url.
func ParseBaseUrl(baseUrl string) (*url.URL, error) {
	if baseUrl == "" {
		return nil, fmt.Errorf("base url is empty")
	}
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("base url %q is not an absolute http(s) url", baseUrl)
	}
	return parsed, nil
}

func newClient(opts Options, tel telemetry.API) (*client, error) {
	assert.NotNil(tel)

	parsedBaseUrl, err := ParseBaseUrl(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(parsedBaseUrl.String())
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetHeader("accept", acceptHeader)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient.SetTimeout(timeout)

	perSecond := opts.RequestsPerSecond
	if perSecond <= 0 {
		perSecond = defaultRate
	}
	// burst >= 1 so that no request is ever rejected outright
	rateLimiter := rate.NewLimiter(rate.Limit(perSecond), int(math.Max(1, math.Ceil(perSecond))))
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	libtelemetry.TraceResty(httpClient, otel.Tracer("nesdc.scraper"))
	telemetry.InstrumentResty(httpClient, tel)

	return &client{
		BaseUrl: parsedBaseUrl,
		Http:    httpClient,
		tel:     tel,
	}, nil
}

func (c *client) load(ctx context.Context, res *resty.Response) (*goquery.Document, error) {
	if !res.IsSuccess() {
		return nil, fmt.Errorf("%w: %s", pdftext.ErrUnexpectedStatus, res.Status())
	}
	doc, err := htmlutil.Load(ctx, res.Body(), res.Header().Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return doc, nil
}

// ListPage fetches page `page` (1-indexed) of the poll listing.
func (c *client) ListPage(ctx context.Context, page int) (*goquery.Document, error) {
	c.tel.ReportDebug(report_client_fetch_list, page)

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"menuNo":    listMenuNo,
			"pageIndex": strconv.Itoa(page),
		}).
		Get(listPath)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return c.load(ctx, res)
}

// Document fetches an arbitrary page, relative links are resolved against the base url.
func (c *client) Document(ctx context.Context, link string) (*goquery.Document, error) {
	c.tel.ReportDebug(report_client_fetch_document, link)

	resolved, ok := htmlutil.Resolve(c.BaseUrl, link)
	if !ok {
		return nil, fmt.Errorf("invalid link %q", link)
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(resolved)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return c.load(ctx, res)
}
