package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecorder()
	scoped := NewScopedAPI("nesdc_scraper", rec)

	scoped.ReportBroken("client.fetch-list", "page", 1)
	scoped.ReportWarning("client.fetch-detail")
	scoped.ReportCount("scraper.entries", 3)

	broken := rec.Reports("broken")
	require.Len(t, broken, 1)
	require.Equal(t, "nesdc_scraper: client.fetch-list", broken[0].Id)
	require.Equal(t, []any{"page", 1}, broken[0].Params)

	require.True(t, rec.Has("warning", "client.fetch-detail"))
	require.False(t, rec.Has("broken", "client.fetch-detail"))
	require.Len(t, rec.Reports(""), 3)
}

func TestInstrumentResty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	rec := NewRecorder()
	client := resty.New()
	InstrumentResty(client, rec)

	_, err := client.R().Get(ts.URL)
	require.NoError(t, err)
	require.True(t, rec.Has("debug", report_resty_request))
	require.True(t, rec.Has("debug", report_resty_response))

	ts.Close()
	_, err = client.R().Get(ts.URL)
	require.Error(t, err)
	require.True(t, rec.Has("broken", report_resty_response))
}

func TestSlogAttrs(t *testing.T) {
	got := attrs("client.fetch-list", []any{errors.New("timeout"), 2, errors.New("closed")})
	require.Equal(t, []any{
		"id", "client.fetch-list",
		"err", "timeout",
		"params.1", 2,
		"err.1", "closed",
	}, got)

	require.Nil(t, attrs("", nil))
}
