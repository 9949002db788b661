package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		intentsCreatedTotal,
		callbacksTotal,
		callbackDuration,
		transitionsTotal,
		revenueTotal,
	)
}

var (
	intentsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_intents_created_total",
			Help: "Payment intents created, by package kind.",
		},
		[]string{"package"}, // 'course', 'subscription'
	)

	// source: return|ipn
	// result: completed|failed|replayed|bad_signature|not_found|amount_mismatch|invalid|error
	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Provider callbacks by source and outcome.",
		},
		[]string{"source", "result"},
	)

	callbackDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_callback_duration_seconds",
			Help:    "Duration of callback handling in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"source"},
	)

	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_transitions_total",
			Help: "Applied intent transitions by target status.",
		},
		[]string{"status"},
	)

	revenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_revenue_total",
			Help: "The total monetary value of completed intents, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncIntentCreated(packageKind string) {
	intentsCreatedTotal.WithLabelValues(norm(packageKind)).Inc()
}

func IncCallback(source, result string) {
	callbacksTotal.WithLabelValues(norm(source), norm(result)).Inc()
}

func ObserveCallback(source string, started time.Time) {
	callbackDuration.WithLabelValues(norm(source)).Observe(time.Since(started).Seconds())
}

func IncTransition(status string) {
	transitionsTotal.WithLabelValues(norm(status)).Inc()
}

func AddRevenue(currency string, amount int64) {
	revenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}
