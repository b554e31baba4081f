// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relayer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the oracle relayer.
type Metrics struct {
	// Requests seen by kind: "decryption", "verification"
	RequestsReceived *prometheus.CounterVec

	// Callbacks by kind and outcome: "submitted", "rejected", "failed"
	Callbacks *prometheus.CounterVec

	// Redelivered requests dropped by the de-duplication set
	Duplicates prometheus.Counter

	CallbackLatency *prometheus.HistogramVec
}

// NewMetrics registers the relayer metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shadowtrade_relayer_requests_total",
			Help: "Oracle requests received from contract logs by kind",
		}, []string{"kind"}),

		Callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shadowtrade_relayer_callbacks_total",
			Help: "Oracle callbacks by kind and outcome",
		}, []string{"kind", "outcome"}),

		Duplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "shadowtrade_relayer_duplicate_requests_total",
			Help: "Redelivered oracle requests that were skipped",
		}),

		CallbackLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shadowtrade_relayer_callback_duration_seconds",
			Help:    "Time from picking up a request to the callback result",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementReceived(kind string) {
	if m != nil {
		m.RequestsReceived.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementCallback(kind, outcome string) {
	if m != nil {
		m.Callbacks.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) IncrementDuplicate() {
	if m != nil {
		m.Duplicates.Inc()
	}
}

func (m *Metrics) ObserveCallbackLatency(kind string, d time.Duration) {
	if m != nil {
		m.CallbackLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}
