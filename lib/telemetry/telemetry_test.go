package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "nesdc-test", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestTraceResty(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer provider.Shutdown(context.Background())

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	client := resty.New()
	TraceResty(client, provider.Tracer("test"))

	_, err := client.R().Get(ts.URL + "/")
	require.NoError(t, err)
	_, err = client.R().Get(ts.URL + "/missing")
	require.NoError(t, err)

	ts.Close()
	_, err = client.R().Get(ts.URL + "/")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	for _, span := range spans {
		require.Equal(t, "http GET", span.Name())
	}
	require.Equal(t, codes.Unset, spans[0].Status().Code)
	require.Equal(t, codes.Error, spans[1].Status().Code)
	require.Equal(t, codes.Error, spans[2].Status().Code)
}

func TestSamplePerfStats(t *testing.T) {
	stats, err := SamplePerfStats(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	require.Positive(t, stats.Goroutines)
	require.GreaterOrEqual(t, stats.CpuPercent, 0.0)
}
