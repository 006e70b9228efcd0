// Package queue is an in-process named job queue with a fixed worker pool.
//
// Jobs may carry a partition key. With partition serialization enabled
// (the default) at most one job per partition runs at a time and jobs in
// a partition start in enqueue order. Jobs without a partition key run
// as soon as a worker is free.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/logging"
)

var _ host.Queue = (*Queue)(nil)

type entry struct {
	id       string
	job      host.Job
	enqueued time.Time
}

// Queue runs host jobs on a worker pool.
type Queue struct {
	name   string
	opts   *options
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	cond     *sync.Cond
	runnable []*entry
	waiting  map[string][]*entry
	busy     map[string]bool
	inflight int
	closed   bool

	wg sync.WaitGroup
}

// New creates a queue and starts its workers.
func New(name string, opts ...Option) (*Queue, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	logger := logging.Default()
	if o.logger != nil {
		logger = o.logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		name:    name,
		opts:    o,
		logger:  logger.With().Str("queue", name).Logger(),
		ctx:     ctx,
		cancel:  cancel,
		waiting: make(map[string][]*entry),
		busy:    make(map[string]bool),
	}
	q.cond = sync.NewCond(&q.mu)

	for i := 0; i < o.workers; i++ {
		q.wg.Add(1)
		go q.work(i)
	}
	q.logger.Debug().Int("workers", o.workers).Bool("serialize", o.serialize).Msg("Queue started")
	return q, nil
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// Enqueue schedules a job and returns its id.
func (q *Queue) Enqueue(_ context.Context, job host.Job) (string, error) {
	if job.Run == nil {
		return "", errors.NewValidationError("run", nil, "job has no function")
	}
	if job.Queue != "" && job.Queue != q.name {
		return "", errors.NewValidationError("queue", job.Queue, fmt.Sprintf("queue %q cannot accept jobs for another queue", q.name))
	}

	e := &entry{id: uuid.NewString(), job: job, enqueued: time.Now()}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", errors.ErrQueueClosed
	}

	partition := q.partitionOf(job)
	switch {
	case partition == "":
		q.runnable = append(q.runnable, e)
	case q.busy[partition]:
		q.waiting[partition] = append(q.waiting[partition], e)
	default:
		q.busy[partition] = true
		q.runnable = append(q.runnable, e)
	}
	q.cond.Broadcast()

	jobsEnqueued.WithLabelValues(q.name).Inc()
	jobsPending.WithLabelValues(q.name).Inc()
	q.logger.Debug().Str("job_id", e.id).Str("title", job.Title).Str("partition", job.Partition).Msg("Job enqueued")
	return e.id, nil
}

// Pending returns the number of jobs not yet started.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.runnable)
	for _, w := range q.waiting {
		n += len(w)
	}
	return n
}

// Wait blocks until every accepted job has finished or ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.idle() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		q.cond.Wait()
	}
	return nil
}

// Shutdown stops accepting jobs and waits for the accepted ones to finish.
// When ctx expires first, running jobs are canceled and ctx's error is
// returned.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.logger.Debug().Msg("Queue stopped")
		return nil
	case <-ctx.Done():
		q.cancel()
		q.logger.Warn().Int("pending", q.Pending()).Msg("Queue shutdown interrupted, canceling running jobs")
		return ctx.Err()
	}
}

func (q *Queue) partitionOf(job host.Job) string {
	if !q.opts.serialize {
		return ""
	}
	return job.Partition
}

// idle must be called with mu held.
func (q *Queue) idle() bool {
	return len(q.runnable) == 0 && len(q.waiting) == 0 && q.inflight == 0
}

func (q *Queue) work(worker int) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		for len(q.runnable) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.runnable) == 0 {
			q.mu.Unlock()
			return
		}
		e := q.runnable[0]
		q.runnable = q.runnable[1:]
		q.inflight++
		q.mu.Unlock()
		jobsPending.WithLabelValues(q.name).Dec()

		q.run(worker, e)

		q.mu.Lock()
		q.inflight--
		q.release(e)
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}

// release hands a partition to its next waiting job. mu must be held.
func (q *Queue) release(e *entry) {
	partition := q.partitionOf(e.job)
	if partition == "" {
		return
	}
	next := q.waiting[partition]
	if len(next) == 0 {
		delete(q.busy, partition)
		return
	}
	q.runnable = append(q.runnable, next[0])
	if len(next) == 1 {
		delete(q.waiting, partition)
	} else {
		q.waiting[partition] = next[1:]
	}
}

func (q *Queue) run(worker int, e *entry) {
	timeout := e.job.Timeout
	if timeout <= 0 {
		timeout = q.opts.timeout
	}
	logger := q.logger.With().
		Str("job_id", e.id).
		Str("title", e.job.Title).
		Int("worker", worker).
		Logger()
	ctx, cancel := context.WithTimeout(logging.WithLogger(q.ctx, &logger), timeout)
	defer cancel()

	start := time.Now()
	logger.Debug().Dur("waited", start.Sub(e.enqueued)).Msg("Job started")

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &panicError{value: r}
			}
		}()
		done <- e.job.Run(ctx, e.id)
	}()

	var outcome string
	select {
	case err := <-done:
		var perr *panicError
		switch {
		case err == nil:
			outcome = outcomeSuccess
			logger.Debug().Dur("duration", time.Since(start)).Msg("Job finished")
		case errors.As(err, &perr):
			outcome = outcomePanic
			logger.Error().Err(err).Msg("Job panicked")
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil:
			outcome = outcomeTimeout
			logger.Error().Dur("timeout", timeout).Msg("Job timed out and was abandoned")
		default:
			outcome = outcomeFailure
			logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Job failed")
		}
	case <-ctx.Done():
		// The job ignored cancellation. Its goroutine is left to finish on
		// its own and nothing it reports afterwards is observed.
		outcome = outcomeTimeout
		if errors.Is(ctx.Err(), context.Canceled) {
			outcome = outcomeFailure
		}
		logger.Error().Err(ctx.Err()).Dur("timeout", timeout).Msg("Job abandoned")
	}

	jobsFinished.WithLabelValues(q.name, outcome).Inc()
	jobDuration.WithLabelValues(q.name).Observe(time.Since(start).Seconds())
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.value)
}
