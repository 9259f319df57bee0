package pdftext

import (
	"bytes"
	"context"
	"errors"
	"io"
	"nesdc-backend/internal/components/telemetry"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/require"
)

type stubStrategy struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubStrategy) Name() string {
	return s.name
}

func (s *stubStrategy) Extract(ctx context.Context, doc Document) (string, error) {
	s.calls++
	return s.text, s.err
}

func serveBytes(t testing.TB, data []byte) *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(data)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func renderPdf(t testing.TB) []byte {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(120, 20, "Right")
	pdf.Text(20, 20, "Left")
	pdf.Text(20, 40, "Second line")

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestLayoutFallsBackToPlain(t *testing.T) {
	ts := serveBytes(t, []byte("%PDF-1.4 stub"))

	layout := &stubStrategy{name: "layout", text: "  \n\t "}
	plain := &stubStrategy{name: "plain", text: "plain text"}
	ocr := &stubStrategy{name: "ocr", text: "ocr text"}

	e := NewExtractorWithStrategies(resty.New(), Options{}, telemetry.NewRecorder(), []Strategy{layout, plain, ocr})
	text, ok := e.Extract(context.Background(), ts.URL+"/result.pdf")
	require.True(t, ok)
	require.Equal(t, "plain text", text)
	require.Equal(t, 1, layout.calls)
	require.Equal(t, 0, ocr.calls)
}

func TestStrategyErrorsAreContained(t *testing.T) {
	rec := telemetry.NewRecorder()
	layout := &stubStrategy{name: "layout", err: errors.New("boom")}
	plain := &stubStrategy{name: "plain", text: "recovered"}

	e := NewExtractorWithStrategies(resty.New(), Options{}, rec, []Strategy{layout, plain})
	text, ok := e.ExtractDocument(context.Background(), Document{Url: "x"})
	require.True(t, ok)
	require.Equal(t, "recovered", text)
	require.True(t, rec.Has("warning", report_extractor_strategy))
}

func TestNoTextWithoutOcrEndpoint(t *testing.T) {
	ts := serveBytes(t, []byte("%PDF-1.4 stub"))

	client := resty.New()
	strategies := []Strategy{
		&stubStrategy{name: "layout", text: " "},
		&stubStrategy{name: "plain", text: ""},
		OCRStrategy{Endpoint: "", Http: client},
	}
	e := NewExtractorWithStrategies(client, Options{}, telemetry.NewRecorder(), strategies)

	text, ok := e.Extract(context.Background(), ts.URL)
	require.False(t, ok)
	require.Equal(t, "", text)
}

func TestOcrFallback(t *testing.T) {
	document := []byte("%PDF-1.4 scanned")
	ts := serveBytes(t, document)

	var received []byte
	ocr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		received, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte("표본오차 ±3.1%p"))
	}))
	defer ocr.Close()

	client := resty.New()
	opts := Options{OcrEndpoint: ocr.URL}
	strategies := []Strategy{
		&stubStrategy{name: "layout"},
		&stubStrategy{name: "plain"},
		OCRStrategy{Endpoint: opts.OcrEndpoint, Http: client},
	}
	e := NewExtractorWithStrategies(client, opts, telemetry.NewRecorder(), strategies)

	text, ok := e.Extract(context.Background(), ts.URL)
	require.True(t, ok)
	require.Equal(t, "표본오차 ±3.1%p", text)
	require.Equal(t, document, received)
}

func TestOcrFailureIsAbsence(t *testing.T) {
	ocr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ocr.Close()

	strategy := OCRStrategy{Endpoint: ocr.URL, Http: resty.New()}
	text, err := strategy.Extract(context.Background(), Document{Data: []byte("x")})
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	require.Equal(t, "", text)
}

func TestFetchFailures(t *testing.T) {
	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()

	rec := telemetry.NewRecorder()
	e := NewExtractor(resty.New(), Options{}, rec)

	_, ok := e.Extract(context.Background(), missing.URL+"/result.pdf")
	require.False(t, ok)
	require.True(t, rec.Has("warning", report_extractor_fetch))

	_, err := e.Fetch(context.Background(), missing.URL+"/result.pdf")
	require.ErrorIs(t, err, ErrUnexpectedStatus)

	_, err = e.Fetch(context.Background(), "javascript:void(0)")
	require.Error(t, err)
}

func TestAllowedHosts(t *testing.T) {
	ts := serveBytes(t, renderPdf(t))
	link, err := url.Parse(ts.URL)
	require.NoError(t, err)

	e := NewExtractor(resty.New(), Options{AllowedHosts: []string{"www.nesdc.go.kr"}}, telemetry.NewRecorder())
	_, ok := e.Extract(context.Background(), ts.URL)
	require.False(t, ok)

	e = NewExtractor(resty.New(), Options{AllowedHosts: []string{link.Host}}, telemetry.NewRecorder())
	_, ok = e.Extract(context.Background(), ts.URL)
	require.True(t, ok)
}

func TestExtractRenderedPdf(t *testing.T) {
	ts := serveBytes(t, renderPdf(t))

	e := NewExtractor(resty.New(), Options{}, telemetry.NewRecorder())
	text, ok := e.Extract(context.Background(), ts.URL)
	require.True(t, ok)
	require.Equal(t, "Left Right\nSecond line", text)
}

func TestLayoutStrategyOrdersByPosition(t *testing.T) {
	text, err := LayoutStrategy{}.Extract(context.Background(), Document{Data: renderPdf(t)})
	require.NoError(t, err)
	require.Equal(t, "Left Right\nSecond line", text)
}

func TestFetchRejectsOversizedDocuments(t *testing.T) {
	ts := serveBytes(t, bytes.Repeat([]byte("x"), 64))

	rec := telemetry.NewRecorder()
	e := NewExtractor(resty.New(), Options{MaxBytes: 32}, rec)

	_, err := e.Fetch(context.Background(), ts.URL)
	require.ErrorIs(t, err, ErrTooLarge)

	_, ok := e.Extract(context.Background(), ts.URL)
	require.False(t, ok)
	require.True(t, rec.Has("warning", report_extractor_fetch))

	e = NewExtractor(resty.New(), Options{MaxBytes: 64}, rec)
	doc, err := e.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	require.Len(t, doc.Data, 64)
}

func TestPdfStrategiesRejectGarbage(t *testing.T) {
	doc := Document{Data: []byte("<html>not a pdf</html>")}

	text, err := LayoutStrategy{}.Extract(context.Background(), doc)
	require.Error(t, err)
	require.Equal(t, "", text)

	text, err = PlainStrategy{}.Extract(context.Background(), doc)
	require.Error(t, err)
	require.Equal(t, "", text)
}
