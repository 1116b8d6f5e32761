// Package metrics holds the Prometheus collectors of docqa
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Buckets for ingestion and answer latencies, 50ms to 2min
var Buckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// IngestionsTotal counts ingestions by outcome and the stage they ended in
	IngestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docqa_ingestions_total",
			Help: "Document ingestions",
		},
		[]string{"status", "stage"},
	)

	// IngestedChunksTotal counts stored chunks
	IngestedChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docqa_ingested_chunks_total",
			Help: "Stored chunks",
		},
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docqa_ingest_duration_seconds",
			Help:    "Ingestion duration",
			Buckets: Buckets,
		},
	)

	// AnswersTotal counts answered questions by outcome (ok, no_content, error)
	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docqa_answers_total",
			Help: "Answered questions",
		},
		[]string{"status"},
	)

	AnswerDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docqa_answer_duration_seconds",
			Help:    "Answer duration",
			Buckets: Buckets,
		},
	)

	// RetrievedRecords records how many records were used as context
	RetrievedRecords = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docqa_retrieved_records",
			Help:    "Records retrieved per question",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
	)

	// RequestsTotal counts HTTP requests by route and status code
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docqa_http_requests_total",
			Help: "HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		IngestionsTotal,
		IngestedChunksTotal,
		IngestDuration,
		AnswersTotal,
		AnswerDuration,
		RetrievedRecords,
		RequestsTotal,
	)
}

// ObserveIngestion records a finished ingestion
func ObserveIngestion(stage string, chunks int, err error, took time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	IngestionsTotal.WithLabelValues(status, stage).Inc()
	IngestedChunksTotal.Add(float64(chunks))
	IngestDuration.Observe(took.Seconds())
}

// ObserveAnswer records a finished question. status is one of ok, no_content or error.
func ObserveAnswer(status string, sources int, took time.Duration) {
	AnswersTotal.WithLabelValues(status).Inc()
	AnswerDuration.Observe(took.Seconds())
	if status == "ok" {
		RetrievedRecords.Observe(float64(sources))
	}
}

// Middleware counts requests by route template.
// Errors are handed to the error handler here so the written status is counted.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				c.Error(err)
			}
			RequestsTotal.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(c.Response().Status)).Inc()
			return nil
		}
	}
}
