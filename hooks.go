package searchterms

import (
	"sync"

	"github.com/agentstation/searchterms/pkg/reconciler"
)

// JobKind identifies what a job does.
type JobKind string

// Job kinds.
const (
	JobCreate JobKind = "create"
	JobUpdate JobKind = "update"
	JobDelete JobKind = "delete"
	JobIndex  JobKind = "index"
)

// JobEvent describes a finished job.
type JobEvent struct {
	JobID      string
	Kind       JobKind
	DatasetID  string
	ResourceID string
	// Result is the reconciliation result. It is nil for index jobs, for
	// retractions of a dataset without a table, and for failed jobs.
	Result *reconciler.Result
}

// Hook function types for job events
type (
	// JobCompletedHook is called after a job saved or removed a table
	JobCompletedHook func(event JobEvent)

	// JobFailedHook is called when a job fails
	JobFailedHook func(event JobEvent, err error)
)

// Hooks provides access to job callback registration.
type Hooks interface {
	// OnJobCompleted registers a callback for completed jobs
	OnJobCompleted(fn JobCompletedHook)

	// OnJobFailed registers a callback for failed jobs
	OnJobFailed(fn JobFailedHook)
}

// hooks manages job callbacks
type hooks struct {
	mu          sync.RWMutex
	onCompleted []JobCompletedHook
	onFailed    []JobFailedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnJobCompleted registers a callback for completed jobs.
func (c *client) OnJobCompleted(fn JobCompletedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onCompleted = append(c.hooks.onCompleted, fn)
}

// OnJobFailed registers a callback for failed jobs.
func (c *client) OnJobFailed(fn JobFailedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onFailed = append(c.hooks.onFailed, fn)
}

func (h *hooks) completed(event JobEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onCompleted {
		fn(event)
	}
}

func (h *hooks) failed(event JobEvent, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onFailed {
		fn(event, err)
	}
}
