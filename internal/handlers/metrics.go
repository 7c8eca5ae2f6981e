package handlers

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	OrderSubmissions   *prometheus.CounterVec
	OrderCancellations *prometheus.CounterVec
	CacheReads         *prometheus.CounterVec
	PersistOutcomes    *prometheus.CounterVec
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		OrderSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_submissions_total",
				Help: "Total order submission attempts.",
			},
			[]string{"type", "status"},
		),
		OrderCancellations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_cancellations_total",
				Help: "Total order cancellation attempts.",
			},
			[]string{"status"},
		),
		CacheReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_reads_total",
				Help: "Cache-aside reads by namespace and result.",
			},
			[]string{"namespace", "result"},
		),
		PersistOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_persist_total",
				Help: "Best-effort audit writes by outcome.",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.OrderSubmissions,
		m.OrderCancellations,
		m.CacheReads,
		m.PersistOutcomes,
	)
	return m
}

func (m *Metrics) cacheRead(namespace string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheReads.WithLabelValues(namespace, result).Inc()
}

func (m *Metrics) submission(orderType, status string) {
	if m == nil {
		return
	}
	m.OrderSubmissions.WithLabelValues(orderType, status).Inc()
}

func (m *Metrics) cancellation(status string) {
	if m == nil {
		return
	}
	m.OrderCancellations.WithLabelValues(status).Inc()
}

func (m *Metrics) persisted(status string) {
	if m == nil {
		return
	}
	m.PersistOutcomes.WithLabelValues(status).Inc()
}
