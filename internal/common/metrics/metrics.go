// internal/common/metrics/metrics.go

// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quote_stage_duration_seconds",
			Help:    "Duration of each workflow stage in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"workflow", "stage"},
	)

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_stage_failures_total",
			Help: "Total number of fatal stage failures",
		},
		[]string{"workflow", "stage", "code"},
	)

	DecodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_decode_failures_total",
			Help: "Oracle replies that could not be decoded into a JSON object",
		},
		[]string{"stage"},
	)

	Workflows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_workflows_total",
			Help: "Total number of workflow runs by outcome",
		},
		[]string{"workflow", "outcome"},
	)

	RetrievalDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_retrieval_degraded_total",
			Help: "Context reads that failed and were replaced by empty context",
		},
		[]string{"source"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_notifications_total",
			Help: "Optimizer notifications by sink and outcome",
		},
		[]string{"sink", "outcome"},
	)
)
