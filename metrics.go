package searchterms

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "searchterms_jobs_total",
		Help: "Resource processing jobs by kind and outcome",
	}, []string{"kind", "outcome"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "searchterms_job_duration_seconds",
		Help:    "Duration of resource processing jobs",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{"kind"})

	tableRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "searchterms_table_rows",
		Help:    "Rows of consolidated tables after reconciliation",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	indexSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "searchterms_index_submissions_total",
		Help: "Datasets submitted for downstream indexing by outcome",
	}, []string{"outcome"})

	indexChunks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "searchterms_index_chunks_total",
		Help: "Search term chunks attached to indexed datasets",
	})
)

const (
	outcomeComplete = "complete"
	outcomeError    = "error"
	outcomeRejected = "rejected"
	outcomeFatal    = "fatal"
)
