package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuthzMetrics holds the Prometheus metrics for authorization decisions
// and workflow transitions.
type AuthzMetrics struct {
	DecisionsTotal   *prometheus.CounterVec
	TransitionsTotal *prometheus.CounterVec
}

// NewAuthzMetrics initializes and registers the metrics on the default
// registry.
func NewAuthzMetrics() *AuthzMetrics {
	return newAuthzMetrics(prometheus.DefaultRegisterer)
}

// NewAuthzMetricsWithRegistry registers on a caller-owned registry,
// mainly for tests.
func NewAuthzMetricsWithRegistry(reg prometheus.Registerer) *AuthzMetrics {
	return newAuthzMetrics(reg)
}

func newAuthzMetrics(reg prometheus.Registerer) *AuthzMetrics {
	factory := promauto.With(reg)
	return &AuthzMetrics{
		DecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evwheels",
			Subsystem: "authz",
			Name:      "decisions_total",
			Help:      "Total authorization decisions by outcome.",
		}, []string{"outcome"}), // outcome: allow, no_role_assigned, forbidden, requires_selection, location_not_permitted, invalid_transition, precondition_failed
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evwheels",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Total accepted status transitions by entity kind.",
		}, []string{"kind", "status"}),
	}
}
