package incidentapi

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the dev API server
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	Incidents     prometheus.Gauge
}

// NewMetrics registers and returns server metrics on the given registerer.
// A nil registerer leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "incmgr_api_requests_total",
			Help: "Total incident API requests by operation and response code.",
		}, []string{"op", "code"}),
		Incidents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "incmgr_api_incidents",
			Help: "Number of incidents currently held.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.Incidents)
	}

	return m
}
