package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	productsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricewatch",
			Subsystem: "pipeline",
			Name:      "products_total",
			Help:      "Products processed by the pipeline, by outcome.",
		},
		[]string{"outcome"},
	)

	notificationsDecided = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricewatch",
			Subsystem: "pipeline",
			Name:      "notifications_total",
			Help:      "Notifications decided, by kind.",
		},
		[]string{"kind"},
	)

	deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricewatch",
			Subsystem: "email",
			Name:      "deliveries_total",
			Help:      "Email deliveries attempted, by result.",
		},
		[]string{"result"},
	)

	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pricewatch",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of full pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17m
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(productsProcessed, notificationsDecided, deliveries, runDuration)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordProduct counts one product outcome ("updated", "retrieval_failed", ...).
func RecordProduct(outcome string) {
	productsProcessed.WithLabelValues(outcome).Inc()
}

// RecordNotification counts a decided notification.
func RecordNotification(kind string) {
	notificationsDecided.WithLabelValues(kind).Inc()
}

// RecordDelivery counts one email delivery attempt.
func RecordDelivery(ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	deliveries.WithLabelValues(result).Inc()
}

// RecordRun observes the duration of a pipeline run.
func RecordRun(status string, d time.Duration) {
	runDuration.WithLabelValues(status).Observe(d.Seconds())
}
