package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	ObserveIngestion("done", 1, nil, time.Millisecond)
	ObserveAnswer("ok", 2, time.Millisecond)
	RequestsTotal.WithLabelValues("GET", "/healthz", "200").Add(0)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, name := range []string{
		"docqa_ingestions_total",
		"docqa_ingested_chunks_total",
		"docqa_ingest_duration_seconds",
		"docqa_answers_total",
		"docqa_answer_duration_seconds",
		"docqa_retrieved_records",
		"docqa_http_requests_total",
	} {
		assert.True(t, names[name], "Expected metric %s to be registered", name)
	}
}

func TestObserveIngestion(t *testing.T) {
	okBefore := testutil.ToFloat64(IngestionsTotal.WithLabelValues("ok", "done"))
	failedBefore := testutil.ToFloat64(IngestionsTotal.WithLabelValues("error", "embedded"))
	chunksBefore := testutil.ToFloat64(IngestedChunksTotal)

	ObserveIngestion("done", 3, nil, time.Second)
	ObserveIngestion("embedded", 0, errors.New("unavailable"), time.Second)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(IngestionsTotal.WithLabelValues("ok", "done")))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(IngestionsTotal.WithLabelValues("error", "embedded")))
	assert.Equal(t, chunksBefore+3, testutil.ToFloat64(IngestedChunksTotal))
}

func TestObserveAnswer(t *testing.T) {
	before := testutil.ToFloat64(AnswersTotal.WithLabelValues("no_content"))

	ObserveAnswer("no_content", 0, time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(AnswersTotal.WithLabelValues("no_content")))
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/items/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "missing")
	})

	okBefore := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/items/:id", "200"))
	missingBefore := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/missing", "404"))

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, okBefore+2, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/items/:id", "200")), "Expected requests to be grouped by route")
	assert.Equal(t, missingBefore+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/missing", "404")))
}
