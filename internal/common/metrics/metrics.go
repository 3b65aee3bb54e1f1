// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framework_search_requests_total",
			Help: "Total number of search dispatches by query kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "framework_search_duration_seconds",
			Help:    "Duration of search dispatches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	SearchHitsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framework_search_hits_skipped_total",
			Help: "Index hits dropped because the relational row no longer exists",
		},
		[]string{"kind"},
	)

	AnalyticsEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framework_analytics_events_total",
			Help: "Analytics events by kind and result (enqueued, dropped, stored, failed)",
		},
		[]string{"kind", "result"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framework_cache_lookups_total",
			Help: "Form data cache lookups by key and result",
		},
		[]string{"key", "result"},
	)

	IndexedDocuments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framework_index_documents_total",
			Help: "Documents sent to the search index by result",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

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
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
