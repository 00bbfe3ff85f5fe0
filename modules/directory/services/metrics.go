package services

import (
	"errors"

	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts directory writes. A nil *Metrics records nothing.
type Metrics struct {
	mutations     *prometheus.CounterVec
	conflicts     *prometheus.CounterVec
	reorderShifts *prometheus.CounterVec
	degradedReads *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "directory",
			Subsystem: "write",
			Name:      "mutations_total",
			Help:      "Total number of directory mutations broken down by collection, op and outcome.",
		}, []string{"collection", "op", "outcome"}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "directory",
			Subsystem: "write",
			Name:      "order_conflicts_total",
			Help:      "Total number of sibling order conflicts reported to callers.",
		}, []string{"collection"}),
		reorderShifts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "directory",
			Subsystem: "write",
			Name:      "reorder_shifts_total",
			Help:      "Total number of sibling records renumbered by confirmed reorders.",
		}, []string{"collection"}),
		degradedReads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "directory",
			Subsystem: "read",
			Name:      "degraded_total",
			Help:      "Total number of best-effort reads that fell back to an empty result.",
		}, []string{"read"}),
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if _, ok := errors.AsType[*hierarchy.OrderConflictError](err); ok {
		return "conflict"
	}
	if _, ok := errors.AsType[*hierarchy.StoreError](err); ok {
		return "store_error"
	}
	return "rejected"
}

func (m *Metrics) recordMutation(collection string, op string, err error) {
	if m == nil {
		return
	}
	outcome := outcomeOf(err)
	m.mutations.WithLabelValues(collection, op, outcome).Inc()
	if outcome == "conflict" {
		m.conflicts.WithLabelValues(collection).Inc()
	}
}

func (m *Metrics) recordShifts(collection string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reorderShifts.WithLabelValues(collection).Add(float64(n))
}

func (m *Metrics) recordDegraded(read string) {
	if m == nil {
		return
	}
	m.degradedReads.WithLabelValues(read).Inc()
}
