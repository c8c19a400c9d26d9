// Package metrics holds the Prometheus instruments of the fleet data API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fleetdata"

var (
	// Uploads counts decoded uploads.
	// Labels: schema_version, outcome (stored, replaced, rejected, conflict, not_found, error)
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "collections",
		Name:      "uploads_total",
		Help:      "Total collection uploads by schema version and outcome",
	}, []string{"schema_version", "outcome"})

	// DecodeDuration measures how long decoding and validating a payload takes.
	// Labels: schema_version
	DecodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "schema",
		Name:      "decode_duration_seconds",
		Help:      "Time to decode and validate an uploaded payload",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"schema_version"})

	// HistoryQueries counts history queries.
	// Labels: entity (alliance, user, collection), outcome (ok, not_found, invalid, error)
	HistoryQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "queries_total",
		Help:      "Total history queries by entity and outcome",
	}, []string{"entity", "outcome"})

	// CacheRequests counts collection cache lookups.
	// Labels: result (hit, miss, error)
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Total collection cache lookups by result",
	}, []string{"result"})
)

// ObserveDecode records the decode duration of one payload.
func ObserveDecode(schemaVersion int, started time.Time) {
	DecodeDuration.WithLabelValues(strconv.Itoa(schemaVersion)).Observe(time.Since(started).Seconds())
}

// CountUpload records the outcome of one upload.
func CountUpload(schemaVersion int, outcome string) {
	Uploads.WithLabelValues(strconv.Itoa(schemaVersion), outcome).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
