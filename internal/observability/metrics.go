package observability

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for question assembly, scoring and catalog reloads.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	assemblies     *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	scoringErrors  *prometheus.CounterVec
	catalogReloads *prometheus.CounterVec
	catalogInfo    *prometheus.GaugeVec
	activeSessions prometheus.Gauge
	scoreTotals    *prometheus.HistogramVec
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns the process-wide metrics registered with the default registry
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers the collectors on reg and panics on a registration conflict
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		assemblies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finhealth",
			Subsystem: "survey",
			Name:      "assemblies_total",
			Help:      "Question sets assembled, by language and whether the conditional question was included.",
		}, []string{"language", "conditional"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finhealth",
			Subsystem: "scoring",
			Name:      "calculations_total",
			Help:      "Score calculations produced, by band.",
		}, []string{"band"}),
		scoringErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finhealth",
			Subsystem: "scoring",
			Name:      "failures_total",
			Help:      "Scoring attempts rejected, by reason.",
		}, []string{"reason"}),
		catalogReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finhealth",
			Subsystem: "catalog",
			Name:      "reloads_total",
			Help:      "Catalog reload attempts, by outcome.",
		}, []string{"outcome"}),
		catalogInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "finhealth",
			Subsystem: "catalog",
			Name:      "info",
			Help:      "Always 1; labelled with the active catalog version.",
		}, []string{"version"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "finhealth",
			Subsystem: "survey",
			Name:      "sessions_in_progress",
			Help:      "Survey sessions started and not yet submitted by this instance.",
		}),
		scoreTotals: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "finhealth",
			Subsystem: "scoring",
			Name:      "total_score",
			Help:      "Distribution of total raw scores, by maximum possible score.",
			Buckets:   []float64{15, 25, 35, 50, 65, 75, 80},
		}, []string{"max"}),
	}

	for _, c := range []prometheus.Collector{
		m.assemblies, m.submissions, m.scoringErrors, m.catalogReloads, m.catalogInfo, m.activeSessions, m.scoreTotals,
	} {
		reg.MustRegister(c)
	}
	return m
}

// ObserveAssembly counts one assembled question set
func (m *Metrics) ObserveAssembly(language string, conditional bool) {
	if m == nil {
		return
	}
	label := "excluded"
	if conditional {
		label = "included"
	}
	m.assemblies.WithLabelValues(language, label).Inc()
}

// ObserveScore records a successful calculation
func (m *Metrics) ObserveScore(band string, total float64, maxPossible int) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(band).Inc()
	m.scoreTotals.WithLabelValues(strconv.Itoa(maxPossible)).Observe(total)
}

// IncScoringFailure counts a rejected scoring attempt
func (m *Metrics) IncScoringFailure(reason string) {
	if m == nil {
		return
	}
	m.scoringErrors.WithLabelValues(reason).Inc()
}

// ObserveCatalogReload counts a reload outcome and, on success, swaps the version label
func (m *Metrics) ObserveCatalogReload(outcome, version string) {
	if m == nil {
		return
	}
	m.catalogReloads.WithLabelValues(outcome).Inc()
	if outcome == ReloadApplied && version != "" {
		m.catalogInfo.Reset()
		m.catalogInfo.WithLabelValues(version).Set(1)
	}
}

// SessionStarted and SessionSubmitted track in-flight sessions
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) SessionSubmitted() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// Catalog reload outcomes
const (
	ReloadApplied   = "applied"
	ReloadUnchanged = "unchanged"
	ReloadRejected  = "rejected"
	ReloadFailed    = "failed"
)
