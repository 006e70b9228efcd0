package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "searchterms_queue_jobs_enqueued_total",
		Help: "Jobs accepted by the queue",
	}, []string{"queue"})

	jobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "searchterms_queue_jobs_finished_total",
		Help: "Jobs finished by outcome (success, failure, timeout, panic)",
	}, []string{"queue", "outcome"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "searchterms_queue_job_duration_seconds",
		Help:    "Wall time of finished jobs",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{"queue"})

	jobsPending = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "searchterms_queue_jobs_pending",
		Help: "Jobs waiting for a worker or for their partition",
	}, []string{"queue"})
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeTimeout = "timeout"
	outcomePanic   = "panic"
)
