// Package metrics exposes optimizer and job activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/heng-zhai/MSc-project/internal/optimization/bees"
)

const namespace = "eba"

// Job statuses used as label values.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
	StatusRejected  = "rejected"
)

// Metrics holds all Prometheus collectors of the service.
type Metrics struct {
	// Optimizer metrics
	Generations  *prometheus.CounterVec
	Evaluations  *prometheus.CounterVec
	SiteOutcomes *prometheus.CounterVec
	BestFitness  *prometheus.GaugeVec

	// Job metrics
	JobsTotal   *prometheus.CounterVec
	JobsRunning prometheus.Gauge
	JobDuration *prometheus.HistogramVec

	// Evaluation cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// to expose them through promhttp.Handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of generations run",
			},
			[]string{"function"},
		),

		Evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Total number of objective evaluations",
			},
			[]string{"function"},
		),

		SiteOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "site_outcomes_total",
				Help:      "Local search outcomes per site and generation",
			},
			[]string{"function", "outcome"},
		),

		BestFitness: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "best_fitness",
				Help:      "Best fitness of the most recently updated run",
			},
			[]string{"function"},
		),

		JobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Total number of optimization jobs by final status",
			},
			[]string{"function", "status"},
		),

		JobsRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "jobs_running",
				Help:      "Number of optimization jobs currently running",
			},
		),

		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Wall clock duration of optimization jobs",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"function"},
		),

		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of evaluation cache hits",
			},
		),

		CacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of evaluation cache misses",
			},
		),
	}
}

// Observer returns a bees.Observer that feeds the optimizer metrics of one
// run. Each run needs its own observer because evaluations are reported
// cumulatively.
func (m *Metrics) Observer(function string) bees.Observer {
	generations := m.Generations.WithLabelValues(function)
	evaluations := m.Evaluations.WithLabelValues(function)
	best := m.BestFitness.WithLabelValues(function)
	improved := m.SiteOutcomes.WithLabelValues(function, "improved")
	shrunk := m.SiteOutcomes.WithLabelValues(function, "shrunk")
	abandoned := m.SiteOutcomes.WithLabelValues(function, "abandoned")
	idle := m.SiteOutcomes.WithLabelValues(function, "idle")

	seen := 0
	return func(s bees.GenerationStats) {
		generations.Inc()
		evaluations.Add(float64(s.Evaluations - seen))
		seen = s.Evaluations
		best.Set(s.BestFitness)
		improved.Add(float64(s.Improved))
		shrunk.Add(float64(s.Shrunk))
		abandoned.Add(float64(s.Abandoned))
		idle.Add(float64(s.Idle))
	}
}

// JobStarted records a job entering the running state.
func (m *Metrics) JobStarted() {
	m.JobsRunning.Inc()
}

// JobFinished records the end of a running job.
func (m *Metrics) JobFinished(function, status string, duration time.Duration) {
	m.JobsRunning.Dec()
	m.JobsTotal.WithLabelValues(function, status).Inc()
	m.JobDuration.WithLabelValues(function).Observe(duration.Seconds())
}

// JobRejected records a job refused before it ran.
func (m *Metrics) JobRejected(function string) {
	m.JobsTotal.WithLabelValues(function, StatusRejected).Inc()
}

// RecordCache adds cache lookups to the counters.
func (m *Metrics) RecordCache(hits, misses int64) {
	m.CacheHitsTotal.Add(float64(hits))
	m.CacheMissesTotal.Add(float64(misses))
}
