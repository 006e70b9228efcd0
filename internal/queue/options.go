package queue

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
)

// Option configures a Queue.
type Option func(*options) error

type options struct {
	workers   int
	timeout   time.Duration
	serialize bool
	logger    *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		workers:   constants.DefaultWorkers,
		timeout:   constants.JobTimeout,
		serialize: true,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithWorkers sets the size of the worker pool.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.NewValidationError("workers", n, "must be at least 1")
		}
		o.workers = n
		return nil
	}
}

// WithTimeout sets the default timeout of jobs that do not carry their own.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("timeout", d, "must be positive")
		}
		o.timeout = d
		return nil
	}
}

// WithSerializedPartitions controls whether jobs sharing a partition key
// run one at a time in enqueue order. It is on by default; turning it off
// lets jobs for the same dataset race (last writer wins).
func WithSerializedPartitions(on bool) Option {
	return func(o *options) error {
		o.serialize = on
		return nil
	}
}

// WithLogger sets the logger used for job lifecycle messages.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
