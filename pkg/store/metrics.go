package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	opList   = "ListAll"
	opCreate = "Create"
	opUpdate = "Update"
	opDelete = "Delete"

	outcomeOK        = "ok"
	outcomeStatus    = "status"
	outcomeTransport = "transport"
)

// Metrics holds Prometheus metrics for requests made to the remote store.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the store metrics and registers them on reg, if reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "incmgr_store_requests_total",
			Help: "Requests sent to the incident store by operation and outcome.",
		}, []string{"op", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "incmgr_store_request_duration_seconds",
			Help:    "Round trip time of incident store requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~10s
		}, []string{"op"}),
	}

	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	}

	return m
}

func (m *Metrics) observe(op, outcome string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(op, outcome).Inc()
	if elapsed > 0 {
		m.RequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	}
}
