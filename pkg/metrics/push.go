package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PushMetrics records push delivery outcomes per audience.
type PushMetrics struct {
	deliveries *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	pruned     prometheus.Counter
}

// NewPushMetrics registers the push delivery metrics on the provided registerer.
func NewPushMetrics(reg prometheus.Registerer) *PushMetrics {
	if reg == nil {
		return &PushMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_deliveries_total",
		Help: "Push delivery attempts by outcome.",
	}, []string{"outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "push_delivery_seconds",
		Help:    "Duration of individual push delivery attempts.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	pruned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_subscriptions_pruned_total",
		Help: "Subscriptions removed after the push service reported them gone.",
	})
	reg.MustRegister(deliveries, latency, pruned)
	return &PushMetrics{
		deliveries: deliveries,
		latency:    latency,
		pruned:     pruned,
	}
}

// ObserveDelivery records one delivery attempt with its outcome and duration.
func (p *PushMetrics) ObserveDelivery(outcome string, duration time.Duration) {
	if p == nil || p.deliveries == nil {
		return
	}
	label := normalizeLabel(outcome)
	p.deliveries.WithLabelValues(label).Inc()
	p.latency.WithLabelValues(label).Observe(duration.Seconds())
}

// IncPruned increments the pruned-subscription counter.
func (p *PushMetrics) IncPruned() {
	if p == nil || p.pruned == nil {
		return
	}
	p.pruned.Inc()
}
