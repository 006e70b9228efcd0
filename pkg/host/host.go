// Package host defines the narrow interfaces through which the searchterms
// plugin talks to the data-catalog host application: the dataset and
// resource action API, task-status records, the downstream indexer and the
// background job queue. Every call carries an explicit Credential.
package host

import (
	"context"
	"io"
	"time"
)

// Credential is the identity host calls are made with. The plugin runs as
// the host's site user.
type Credential struct {
	User       string `json:"user"`
	IgnoreAuth bool   `json:"ignore_auth"`
}

// Catalog is the dataset and resource action API.
type Catalog interface {
	// SiteUser returns the privileged credential background work runs as.
	SiteUser(ctx context.Context) (Credential, error)

	// ShowDataset returns a dataset with its resources, by id or name.
	ShowDataset(ctx context.Context, cred Credential, idOrName string) (*Dataset, error)

	// SearchDatasets returns one page of datasets.
	SearchDatasets(ctx context.Context, cred Credential, query SearchQuery) (*SearchPage, error)

	// PatchDataset updates only the given top-level dataset fields.
	PatchDataset(ctx context.Context, cred Credential, datasetID string, fields map[string]any) error

	// CreateResource creates a resource from an uploaded file.
	CreateResource(ctx context.Context, cred Credential, upload Upload) (*Resource, error)

	// DeleteResource deletes a resource.
	DeleteResource(ctx context.Context, cred Credential, resourceID string) error
}

// TaskStatuses stores task-status records.
type TaskStatuses interface {
	// UpdateTaskStatus creates or replaces the record with the same
	// (EntityID, TaskType, Key).
	UpdateTaskStatus(ctx context.Context, cred Credential, status TaskStatus) error

	// TaskStatus returns the record for (entityID, taskType, key).
	TaskStatus(ctx context.Context, cred Credential, entityID, taskType, key string) (*TaskStatus, error)
}

// Indexer submits a dataset's consolidated terms table for indexing by the
// downstream search backend.
type Indexer interface {
	SubmitForIndexing(ctx context.Context, cred Credential, datasetID string) error
}

// Queue accepts background jobs.
type Queue interface {
	// Enqueue schedules a job and returns its queue job id.
	Enqueue(ctx context.Context, job Job) (string, error)
}

// Job is a unit of background work.
type Job struct {
	// Queue is the named queue the job runs on.
	Queue string
	// Title describes the job in logs.
	Title string
	// Partition groups jobs that must not run concurrently. Jobs with the
	// same partition run one at a time in enqueue order.
	Partition string
	// Timeout bounds the job's run time. Zero means the queue default.
	Timeout time.Duration
	// Run performs the work. It receives the job id the queue assigned.
	Run func(ctx context.Context, jobID string) error
}

// SearchQuery selects a page of datasets.
type SearchQuery struct {
	Query          string
	Rows           int
	Start          int
	IncludePrivate bool
}

// SearchPage is one page of a dataset search.
type SearchPage struct {
	Count   int        `json:"count"`
	Results []*Dataset `json:"results"`
}

// Upload describes a file to create a resource from.
type Upload struct {
	DatasetID string
	Name      string
	Filename  string
	Format    string
	MimeType  string
	Extras    map[string]any
	Body      io.Reader
}

// TaskState is the state of a resource processing job.
type TaskState string

// Job states, in lifecycle order.
const (
	StateSubmitting TaskState = "submitting"
	StatePending    TaskState = "pending"
	StateRunning    TaskState = "running"
	StateComplete   TaskState = "complete"
	StateError      TaskState = "error"
)

// Terminal reports whether no further transition follows the state.
func (s TaskState) Terminal() bool {
	return s == StateComplete || s == StateError
}

// TaskStatus is a task-status record.
type TaskStatus struct {
	EntityID    string    `json:"entity_id" yaml:"entity_id"`
	EntityType  string    `json:"entity_type" yaml:"entity_type"`
	TaskType    string    `json:"task_type" yaml:"task_type"`
	Key         string    `json:"key" yaml:"key"`
	State       TaskState `json:"state" yaml:"state"`
	Value       string    `json:"value" yaml:"value"`
	Error       string    `json:"error" yaml:"error"`
	LastUpdated time.Time `json:"last_updated" yaml:"last_updated"`
}
