// Package observability exposes the Prometheus counters operators watch:
// tool traffic, reservation races, compensations and fatal inconsistencies.
package observability

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	toolInvocations      *prometheus.CounterVec
	reservationConflicts prometheus.Counter
	compensations        prometheus.Counter
	fatalInconsistencies prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		toolInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduling",
			Subsystem: "tools",
			Name:      "invocations_total",
			Help:      "Tool invocations by name and outcome",
		}, []string{"tool", "outcome"}),
		reservationConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scheduling",
			Subsystem: "slots",
			Name:      "reservation_conflicts_total",
			Help:      "Reservation attempts that lost the conditional update",
		}),
		compensations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scheduling",
			Subsystem: "booking",
			Name:      "compensations_total",
			Help:      "Slots released after a failed appointment persist",
		}),
		fatalInconsistencies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scheduling",
			Subsystem: "booking",
			Name:      "fatal_inconsistencies_total",
			Help:      "Compensation failures leaving a slot orphaned in reserved state",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.toolInvocations, m.reservationConflicts, m.compensations, m.fatalInconsistencies)
	return m
}

func (m *Metrics) ObserveTool(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolInvocations.WithLabelValues(tool, outcome).Inc()
}

func (m *Metrics) ObserveReservationConflict() {
	if m == nil {
		return
	}
	m.reservationConflicts.Inc()
}

func (m *Metrics) ObserveCompensation() {
	if m == nil {
		return
	}
	m.compensations.Inc()
}

func (m *Metrics) ObserveFatalInconsistency() {
	if m == nil {
		return
	}
	m.fatalInconsistencies.Inc()
}
