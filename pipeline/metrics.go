package pipeline

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gdpforecast"

// Metrics are the Prometheus collectors for pipeline runs. A nil *Metrics
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	runs           *prometheus.CounterVec
	sectors        *prometheus.CounterVec
	selections     *prometheus.CounterVec
	sectorDuration *prometheus.HistogramVec
	rows           *prometheus.GaugeVec
	meanRMSE       *prometheus.GaugeVec
}

// NewMetrics registers the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by table and status.",
		}, []string{"table", "status"}),
		sectors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sectors_total",
			Help:      "Sectors processed by table and outcome.",
		}, []string{"table", "outcome"}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Model selections by table and source.",
		}, []string{"table", "source"}),
		sectorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sector_duration_seconds",
			Help:      "Time spent selecting and fitting one sector.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"table"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_written",
			Help:      "Rows written by the last run per table.",
		}, []string{"table"}),
		meanRMSE: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_rmse",
			Help:      "Mean in-sample RMSE of the last run per table.",
		}, []string{"table"}),
	}
	m.Registry.MustRegister(m.runs, m.sectors, m.selections, m.sectorDuration, m.rows, m.meanRMSE)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) observeSector(table, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sectors.WithLabelValues(table, outcome).Inc()
	m.sectorDuration.WithLabelValues(table).Observe(elapsed.Seconds())
}

func (m *Metrics) observeSelection(table, source string) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(table, source).Inc()
}

func (m *Metrics) observeRun(table, status string, rows int, rmse float64) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(table, status).Inc()
	if status == statusOK {
		m.rows.WithLabelValues(table).Set(float64(rows))
		m.meanRMSE.WithLabelValues(table).Set(rmse)
	}
}
