// Package metrics exposes Prometheus collectors for analyses.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ecoprompt"

// Metrics holds the analyzer collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	energySavings    *prometheus.HistogramVec
	tableBuilds      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		analysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total number of prompt analyses",
			},
			[]string{"mode", "status"}, // status: success or an error kind
		),
		analysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Duration of prompt analyses in seconds",
				Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mode"},
		),
		energySavings: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "energy_savings_kwh",
				Help:      "Estimated energy saved per analysis in kWh",
				Buckets:   []float64{-0.1, -0.05, -0.01, 0, 0.005, 0.01, 0.025, 0.05, 0.1, 0.2},
			},
			[]string{"mode"},
		),
		tableBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reference_table_builds_total",
				Help:      "Reference embedding table builds",
			},
			[]string{"status"},
		),
	}

	for _, c := range []prometheus.Collector{m.analysesTotal, m.analysisDuration, m.energySavings, m.tableBuilds} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveAnalysis records one finished analysis.
func (m *Metrics) ObserveAnalysis(mode, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.analysesTotal.WithLabelValues(mode, status).Inc()
	m.analysisDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSavings(mode string, kwh float64) {
	if m == nil {
		return
	}
	m.energySavings.WithLabelValues(mode).Observe(kwh)
}

// ObserveTableBuild counts a reference table build; err nil means success.
func (m *Metrics) ObserveTableBuild(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.tableBuilds.WithLabelValues(status).Inc()
}
