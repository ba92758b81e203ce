package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the well
// data pipeline.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	StageDuration   *prometheus.HistogramVec // label: stage={fetch,resolve,join,sink}

	// Grid fetch metrics.
	CellsFetched    prometheus.Counter
	CellsIncomplete prometheus.Counter
	GISRequests     *prometheus.CounterVec // label: outcome={success,error}
	RawFeatures     prometheus.Counter
	WellsUnique     prometheus.Gauge

	// Operator resolution metrics.
	EWARequests       *prometheus.CounterVec // labels: kind={county,api}, outcome={success,overflow,empty,error}
	GroupsOverflowed  prometheus.Counter
	OperatorsResolved prometheus.Gauge

	// Classification metrics.
	WellsClassified *prometheus.CounterVec // label: operator
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "well_etl",
			Name:      "pipeline_running",
			Help:      "1 while the batch run is active, 0 when finished.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "well_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		}, []string{"stage"}),
		CellsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "well_etl",
			Name:      "grid_cells_total",
			Help:      "Grid cells whose pagination was started.",
		}),
		CellsIncomplete: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "well_etl",
			Name:      "grid_cells_incomplete_total",
			Help:      "Grid cells abandoned mid-pagination after a transport or decode error.",
		}),
		GISRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "well_etl",
			Name:      "gis_requests_total",
			Help:      "GIS page requests by outcome.",
		}, []string{"outcome"}),
		RawFeatures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "well_etl",
			Name:      "gis_raw_features_total",
			Help:      "Features returned by the GIS service before dedup.",
		}),
		WellsUnique: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "well_etl",
			Name:      "wells_unique",
			Help:      "Distinct wells accumulated by the grid fetch.",
		}),
		EWARequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "well_etl",
			Name:      "ewa_requests_total",
			Help:      "EWA queries by kind and outcome.",
		}, []string{"kind", "outcome"}),
		GroupsOverflowed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "well_etl",
			Name:      "ewa_groups_overflowed_total",
			Help:      "County groups that exceeded the EWA result cap.",
		}),
		OperatorsResolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "well_etl",
			Name:      "operators_resolved",
			Help:      "Identifiers with a resolved raw operator name.",
		}),
		WellsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "well_etl",
			Name:      "wells_classified_total",
			Help:      "Output records by canonical operator name.",
		}, []string{"operator"}),
	}

	prometheus.MustRegister(
		m.PipelineRunning,
		m.StageDuration,
		m.CellsFetched,
		m.CellsIncomplete,
		m.GISRequests,
		m.RawFeatures,
		m.WellsUnique,
		m.EWARequests,
		m.GroupsOverflowed,
		m.OperatorsResolved,
		m.WellsClassified,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "well_etl", Name: "pipeline_running"}),
		StageDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "well_etl", Name: "stage_duration_seconds"}, []string{"stage"}),
		CellsFetched:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "well_etl", Name: "grid_cells_total"}),
		CellsIncomplete:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "well_etl", Name: "grid_cells_incomplete_total"}),
		GISRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "well_etl", Name: "gis_requests_total"}, []string{"outcome"}),
		RawFeatures:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "well_etl", Name: "gis_raw_features_total"}),
		WellsUnique:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "well_etl", Name: "wells_unique"}),
		EWARequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "well_etl", Name: "ewa_requests_total"}, []string{"kind", "outcome"}),
		GroupsOverflowed:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "well_etl", Name: "ewa_groups_overflowed_total"}),
		OperatorsResolved: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "well_etl", Name: "operators_resolved"}),
		WellsClassified:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "well_etl", Name: "wells_classified_total"}, []string{"operator"}),
	}
}
