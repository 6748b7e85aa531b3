package table

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts serializer and hub activity. One instance is shared by
// every table's serializer; series are split by table id.
type Metrics struct {
	RequestsApplied *prometheus.CounterVec
	RequestErrors   *prometheus.CounterVec
	Revisions       *prometheus.CounterVec
	Subscribers     *prometheus.GaugeVec
}

// NewMetrics registers the holdem metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsApplied: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "holdem",
			Subsystem: "table",
			Name:      "requests_applied_total",
			Help:      "Requests applied by the table serializer.",
		}, []string{"table"}),
		RequestErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "holdem",
			Subsystem: "table",
			Name:      "request_errors_total",
			Help:      "Requests rejected by the table serializer.",
		}, []string{"table", "kind"}),
		Revisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "holdem",
			Subsystem: "table",
			Name:      "revisions_total",
			Help:      "Snapshot revisions published.",
		}, []string{"table"}),
		Subscribers: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "holdem",
			Subsystem: "table",
			Name:      "subscribers",
			Help:      "Active snapshot subscribers.",
		}, []string{"table"}),
	}
}
