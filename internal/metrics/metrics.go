// Package metrics exposes Prometheus instrumentation for the notes API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//nolint:gochecknoglobals // Prometheus collectors are process-wide
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notes_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notes_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notes_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notes_db_query_duration_seconds",
			Help:    "Duration of database statements",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	NoteOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notes_operations_total",
			Help: "Total number of note operations",
		},
		[]string{"operation"}, // list, count, export, create, update, delete, restore
	)

	AuthDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notes_auth_denied_total",
			Help: "Requests rejected by the scope gate",
		},
		[]string{"reason", "scope"}, // unauthenticated/forbidden
	)

	CountCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notes_count_cache_total",
			Help: "Count cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)
)

// Middleware records request counts and latencies. The route label is the
// matched chi pattern, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ActiveRequests.Inc()
		defer ActiveRequests.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// TrackDB starts a timer for a database statement; call ObserveDuration when it finishes.
func TrackDB(operation string) *prometheus.Timer {
	return prometheus.NewTimer(DBQueryDuration.WithLabelValues(operation))
}

// TrackNoteOperation increments the note operation counter.
func TrackNoteOperation(operation string) {
	NoteOperationsTotal.WithLabelValues(operation).Inc()
}

// TrackAuthDenied records a request the scope gate turned away.
func TrackAuthDenied(reason, scope string) {
	AuthDeniedTotal.WithLabelValues(reason, scope).Inc()
}

// TrackCountCache records a count cache lookup result.
func TrackCountCache(result string) {
	CountCacheTotal.WithLabelValues(result).Inc()
}
