// Package metrics exposes Prometheus collectors for executions, nodes and
// scheduled runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orchestrator"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	executions        *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	nodeExecutions    *prometheus.CounterVec
	nodeDuration      *prometheus.HistogramVec
	scheduleRuns      *prometheus.CounterVec
	schedulerJobs     prometheus.Gauge
}

// New creates the collectors and registers them on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Workflow executions by final status.",
		}, []string{"status"}),
		executionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_duration_seconds",
			Help:      "Workflow execution wall time.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 10),
		}, []string{"status"}),
		nodeExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_executions_total",
			Help:      "Node executions by node type and status.",
		}, []string{"node_type", "status"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Node executor wall time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node_type"}),
		scheduleRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_runs_total",
			Help:      "Scheduled firings by result: success, failure, skipped, misfire.",
		}, []string{"result"}),
		schedulerJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_jobs",
			Help:      "Jobs currently registered with the scheduler.",
		}),
	}

	m.registry.MustRegister(
		m.executions,
		m.executionDuration,
		m.nodeExecutions,
		m.nodeDuration,
		m.scheduleRuns,
		m.schedulerJobs,
		prometheus.NewGoCollector(),
	)

	return m
}

// Registry returns the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) ObserveExecution(status string, duration time.Duration) {
	if m == nil {
		return
	}

	m.executions.WithLabelValues(status).Inc()
	m.executionDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *Metrics) ObserveNode(nodeType, status string, duration time.Duration) {
	if m == nil {
		return
	}

	m.nodeExecutions.WithLabelValues(nodeType, status).Inc()
	m.nodeDuration.WithLabelValues(nodeType).Observe(duration.Seconds())
}

func (m *Metrics) ScheduleRun(result string) {
	if m == nil {
		return
	}

	m.scheduleRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) SetSchedulerJobs(n int) {
	if m == nil {
		return
	}

	m.schedulerJobs.Set(float64(n))
}
