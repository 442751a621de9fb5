// Package metrics exposes Prometheus instrumentation for background
// operations. OperationMetrics consumes operation events, so executors stay
// unaware of Prometheus entirely.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mverity/docvault-api/internal/events"
	"github.com/mverity/docvault-api/internal/operation"
)

// OperationMetrics tracks operation lifecycle metrics. It implements
// events.EventHandler and derives everything from the event stream.
type OperationMetrics struct {
	OperationsTotal    *prometheus.CounterVec
	OperationsInFlight *prometheus.GaugeVec
	OperationDuration  *prometheus.HistogramVec

	// startedAt remembers when each operation was first observed so a
	// duration can be recorded at its terminal transition.
	mu        sync.Mutex
	startedAt map[string]time.Time
}

// New creates an OperationMetrics and registers its collectors with reg.
func New(reg prometheus.Registerer) *OperationMetrics {
	m := &OperationMetrics{
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docvault_operations_total",
			Help: "total number of finished background operations",
		}, []string{"kind", "outcome"}),
		OperationsInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "docvault_operations_in_flight",
			Help: "number of background operations not yet in a terminal state",
		}, []string{"kind"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docvault_operation_duration_seconds",
			Help:    "wall time from submission to terminal state",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"kind"}),
		startedAt: make(map[string]time.Time),
	}

	reg.MustRegister(m.OperationsTotal)
	reg.MustRegister(m.OperationsInFlight)
	reg.MustRegister(m.OperationDuration)
	return m
}

// HandleEvent implements events.EventHandler.
func (m *OperationMetrics) HandleEvent(_ context.Context, event *events.OperationEvent) error {
	kind := string(event.Kind)

	if event.State == operation.StateQueued {
		m.mu.Lock()
		m.startedAt[event.OperationID] = event.OccurredAt
		m.mu.Unlock()
		m.OperationsInFlight.WithLabelValues(kind).Inc()
		return nil
	}

	if !event.State.Terminal() {
		return nil
	}

	m.OperationsInFlight.WithLabelValues(kind).Dec()
	m.OperationsTotal.WithLabelValues(kind, string(event.State)).Inc()

	m.mu.Lock()
	started, ok := m.startedAt[event.OperationID]
	delete(m.startedAt, event.OperationID)
	m.mu.Unlock()
	if ok {
		m.OperationDuration.WithLabelValues(kind).Observe(event.OccurredAt.Sub(started).Seconds())
	}
	return nil
}
