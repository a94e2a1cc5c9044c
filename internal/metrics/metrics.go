// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gameforge",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gameforge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gameforge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	storageRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gameforge",
			Subsystem: "storage",
			Name:      "retries_total",
			Help:      "Storage operations retried after a transient failure.",
		},
		[]string{"op"},
	)

	storageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gameforge",
			Subsystem: "storage",
			Name:      "failures_total",
			Help:      "Storage operations that failed, by kind (permanent or exhausted).",
		},
		[]string{"op", "kind"},
	)

	purchaseEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gameforge",
			Subsystem: "queue",
			Name:      "purchase_events_total",
			Help:      "purchase.completed events by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		storageRetries,
		storageFailures,
		purchaseEvents,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// HTTPStart marks a request in flight and returns a func that records it
// once the route and status are known.
func HTTPStart() func(method, route string, status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(method, route string, status int) {
		httpInFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		method = strings.ToUpper(method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// StorageRetry counts one retry of op.
func StorageRetry(op string) { storageRetries.WithLabelValues(op).Inc() }

// StorageFailure counts a failed op. kind is "permanent" or "exhausted".
func StorageFailure(op, kind string) { storageFailures.WithLabelValues(op, kind).Inc() }

// PurchaseEvent counts a published or consumed purchase event.
func PurchaseEvent(outcome string) { purchaseEvents.WithLabelValues(outcome).Inc() }
