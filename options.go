package searchterms

import (
	"os"
	"time"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/extension"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/reconciler"
)

// Option is a function that configures a Plugin instance.
type Option func(*options) error

// options holds the configuration for a Plugin instance.
type options struct {
	statuses   host.TaskStatuses
	indexer    host.Indexer
	queue      host.Queue
	registry   *extension.Registry
	reconciler reconciler.Reconciler

	storagePath string
	tempDir     string

	workers           int
	jobTimeout        time.Duration
	serializeDatasets bool
	indexAfterJob     bool
}

func defaults() *options {
	return &options{
		tempDir:           os.TempDir(),
		workers:           constants.DefaultWorkers,
		jobTimeout:        constants.JobTimeout,
		serializeDatasets: true,
		indexAfterJob:     true,
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

// WithTaskStatuses sets where job states are recorded.
func WithTaskStatuses(statuses host.TaskStatuses) Option {
	return func(o *options) error {
		o.statuses = statuses
		return nil
	}
}

// WithIndexer sets the downstream indexer consolidated tables are
// submitted to after they change.
func WithIndexer(indexer host.Indexer) Option {
	return func(o *options) error {
		o.indexer = indexer
		return nil
	}
}

// WithQueue runs background jobs on an external queue instead of the
// plugin's own.
func WithQueue(q host.Queue) Option {
	return func(o *options) error {
		o.queue = q
		return nil
	}
}

// WithRegistry sets the extension registry eligibility and extraction
// come from.
func WithRegistry(registry *extension.Registry) Option {
	return func(o *options) error {
		if registry == nil {
			return errors.NewValidationError("registry", nil, "cannot be nil")
		}
		o.registry = registry
		return nil
	}
}

// WithReconciler replaces the default reconciler.
func WithReconciler(r reconciler.Reconciler) Option {
	return func(o *options) error {
		o.reconciler = r
		return nil
	}
}

// WithStoragePath sets the root of the host's file storage. Without it the
// CKAN_STORAGE_PATH environment variable is used.
func WithStoragePath(path string) Option {
	return func(o *options) error {
		o.storagePath = path
		return nil
	}
}

// WithTempDir sets where temporary artifact files are written.
func WithTempDir(dir string) Option {
	return func(o *options) error {
		o.tempDir = dir
		return nil
	}
}

// WithWorkers sets the worker count of the plugin's own queue.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.NewValidationError("workers", n, "must be at least 1")
		}
		o.workers = n
		return nil
	}
}

// WithJobTimeout sets the timeout of background jobs.
func WithJobTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("job_timeout", d, "must be positive")
		}
		o.jobTimeout = d
		return nil
	}
}

// WithSerializeDatasets controls whether jobs of one dataset run one at a
// time on the plugin's own queue. Disabling it lets concurrent jobs of a
// dataset overwrite each other's results.
func WithSerializeDatasets(enabled bool) Option {
	return func(o *options) error {
		o.serializeDatasets = enabled
		return nil
	}
}

// WithIndexAfterJob controls whether event-driven jobs submit the dataset
// for indexing after saving its table.
func WithIndexAfterJob(enabled bool) Option {
	return func(o *options) error {
		o.indexAfterJob = enabled
		return nil
	}
}
