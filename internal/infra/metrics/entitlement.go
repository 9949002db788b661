package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		entitlementGrantsTotal,
		entitlementFailuresTotal,
	)
}

var (
	entitlementGrantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_grants_total",
			Help: "Entitlements applied after a completed payment.",
		},
		[]string{"kind"}, // 'course', 'subscription'
	)

	// A completed intent whose entitlement could not be applied. Needs reconciliation.
	entitlementFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_failures_total",
			Help: "Completed payments whose entitlement failed to apply.",
		},
		[]string{"kind"},
	)
)

func IncEntitlementGrant(kind string) {
	entitlementGrantsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncEntitlementFailure(kind string) {
	entitlementFailuresTotal.WithLabelValues(norm(kind)).Inc()
}
