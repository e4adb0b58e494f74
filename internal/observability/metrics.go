package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aqi_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the AQI pipeline.
type Metrics struct {
	ReadingsProcessed prometheus.Counter
	InvalidReadings   prometheus.Counter
	ReportsProduced   prometheus.Counter
	TransformErrors   prometheus.Counter
	LoadErrors        *prometheus.CounterVec // labels: sink
	PipelineRunning   prometheus.Gauge

	// Cycle metrics.
	StationsPerCycle prometheus.Histogram
	CycleDuration    prometheus.Histogram

	// Provider metrics.
	ProviderRequests    *prometheus.CounterVec   // labels: provider, outcome={success,error}
	ProviderCache       *prometheus.CounterVec   // labels: provider, result={hit,miss}
	ProviderAPIDuration *prometheus.HistogramVec // labels: provider
	ProviderIndexOn     prometheus.Gauge

	// Per-station gauges.
	StationAQI  *prometheus.GaugeVec // labels: station
	StationPM25 *prometheus.GaugeVec // labels: station

	AlertsPublished *prometheus.CounterVec // labels: category
	Advisories      *prometheus.CounterVec // labels: source={gemini,rules,memo}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewDetachedMetrics creates Metrics that are never exported, for one-shot
// CLI commands that reuse the provider clients.
func NewDetachedMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReadingsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_processed_total",
			Help:      "Hourly readings received from the air-quality provider.",
		}),
		InvalidReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_readings_total",
			Help:      "Readings skipped for missing or invalid PM2.5.",
		}),
		ReportsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_produced_total",
			Help:      "Station snapshots loaded into the sinks.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Stations whose series could not be turned into a snapshot.",
		}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Sink write failures by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		StationsPerCycle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stations_per_cycle",
			Help:      "Number of stations successfully fetched per cycle.",
			Buckets:   []float64{1, 2, 4, 6, 8, 12, 16, 24, 32},
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete extract-transform-load cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Upstream API requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_cache_total",
			Help:      "Provider response cache lookups by result.",
		}, []string{"provider", "result"}),
		ProviderAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_api_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		ProviderIndexOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_index_enabled",
			Help:      "1 when provider-native index enrichment is enabled, 0 otherwise.",
		}),
		StationAQI: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_aqi",
			Help:      "Current EPA AQI score per station.",
		}, []string{"station"}),
		StationPM25: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_pm25_ugm3",
			Help:      "Current PM2.5 concentration per station in µg/m³.",
		}, []string{"station"}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "MQTT alerts published by category.",
		}, []string{"category"}),
		Advisories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advisories_total",
			Help:      "Advisories served by source.",
		}, []string{"source"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReadingsProcessed,
		m.InvalidReadings,
		m.ReportsProduced,
		m.TransformErrors,
		m.LoadErrors,
		m.PipelineRunning,
		m.StationsPerCycle,
		m.CycleDuration,
		m.ProviderRequests,
		m.ProviderCache,
		m.ProviderAPIDuration,
		m.ProviderIndexOn,
		m.StationAQI,
		m.StationPM25,
		m.AlertsPublished,
		m.Advisories,
	}
}
