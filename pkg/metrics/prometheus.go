package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"MarketTiming/internal/domain/models"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	sourceLoads   *prometheus.CounterVec
	seriesState   *prometheus.GaugeVec
	seriesRows    *prometheus.GaugeVec
	compositeScr  prometheus.Gauge
	subScore      *prometheus.GaugeVec
	tableRows     *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	lastSuccessTS prometheus.Gauge
}

// New creates a recorder whose collectors are registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mt_pipeline_runs_total",
				Help: "Pipeline runs by result",
			},
			[]string{"result"},
		),
		runDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mt_pipeline_run_duration_seconds",
				Help:    "Duration of a full pipeline run",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		sourceLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mt_source_loads_total",
				Help: "Raw table loads by source key and result",
			},
			[]string{"source", "result"},
		),
		seriesState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mt_series_loaded",
				Help: "1 when the series was loaded, 0 when it fell back to its default",
			},
			[]string{"series"},
		),
		seriesRows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mt_series_rows",
				Help: "Observations kept for a series in the last run",
			},
			[]string{"series"},
		),
		compositeScr: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "mt_signal_composite_score",
				Help: "Composite score of the latest signal",
			},
		),
		subScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mt_signal_sub_score",
				Help: "Sub-score of each composite input for the latest signal",
			},
			[]string{"input"},
		),
		tableRows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mt_table_rows",
				Help: "Rows in the aligned tables",
			},
			[]string{"frequency"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mt_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastSuccessTS: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "mt_pipeline_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run",
			},
		),
	}
}

// RecordRun records one pipeline run.
func (r *Recorder) RecordRun(ok bool, seconds float64) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.runsTotal.WithLabelValues(result).Inc()
	r.runDuration.Observe(seconds)
}

// RecordSourceLoad records one raw table load attempt.
func (r *Recorder) RecordSourceLoad(source string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.sourceLoads.WithLabelValues(source, result).Inc()
}

// RecordSnapshot publishes the state of a successful run.
func (r *Recorder) RecordSnapshot(s *models.Snapshot) {
	for _, st := range s.Statuses {
		loaded := 0.0
		if st.State == models.SeriesLoaded {
			loaded = 1
		}
		r.seriesState.WithLabelValues(st.Name).Set(loaded)
		r.seriesRows.WithLabelValues(st.Name).Set(float64(st.Rows))
	}
	r.compositeScr.Set(s.Latest.Score)
	for _, ss := range s.Latest.SubScores {
		r.subScore.WithLabelValues(ss.Name).Set(ss.Score)
	}
	r.tableRows.WithLabelValues(string(models.FrequencyDaily)).Set(float64(s.Daily.Len()))
	r.tableRows.WithLabelValues(string(models.FrequencyMonthly)).Set(float64(s.Monthly.Len()))
	r.lastSuccessTS.Set(float64(s.GeneratedAt.Unix()))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
