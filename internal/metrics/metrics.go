package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service's prometheus collectors. A nil *Metrics is safe
// to call, which keeps tests free of registry plumbing.
type Metrics struct {
	scansTotal        *prometheus.CounterVec
	recognitionStages *prometheus.CounterVec
	scanDuration      prometheus.Histogram
	decisionsTotal    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		scansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vinscan_scans_total",
			Help: "Scan sessions by terminal outcome.",
		}, []string{"outcome"}),
		recognitionStages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vinscan_recognition_stage_total",
			Help: "Recognition stage attempts by stage and result.",
		}, []string{"stage", "result"}),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vinscan_scan_duration_seconds",
			Help:    "End-to-end duration of the scan pipeline.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		decisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vinscan_decisions_total",
			Help: "Terminal session decisions by kind.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) Scan(outcome string) {
	if m == nil {
		return
	}
	m.scansTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecognitionStage(stage, result string) {
	if m == nil {
		return
	}
	m.recognitionStages.WithLabelValues(stage, result).Inc()
}

func (m *Metrics) ObserveScanDuration(seconds float64) {
	if m == nil {
		return
	}
	m.scanDuration.Observe(seconds)
}

func (m *Metrics) Decision(kind string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(kind).Inc()
}
