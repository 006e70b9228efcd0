// Package constants provides shared constants used throughout the searchterms codebase.
// This includes the artifact naming conventions, job timeouts, limits, and file
// permissions that must stay consistent between the orchestrator, the persistence
// adapter and the host integrations.
package constants

import "time"

// Artifact and column naming conventions. These are part of the persisted
// format and must not change without a migration.
const (
	// TermsResourceName is the reserved resource name of the consolidated artifact
	TermsResourceName = "Search Terms"

	// AttributionMarker marks a column as a resource-attribution column
	AttributionMarker = "rsrc"

	// AttributionPrefix prefixes the resource id in generated attribution column names
	AttributionPrefix = "rsrc-"

	// TermMarker marks a column as a term column
	TermMarker = "Term"

	// SearchIndexColumn is the derived free-text index column
	SearchIndexColumn = "search_index"

	// RowIndexColumn is an incidental row-index column stripped on save
	RowIndexColumn = "index"

	// LegacySchemaMarker is a column only present in the obsolete table format
	LegacySchemaMarker = "found_in_1"

	// AttributedValue is the serialized value of a true attribution cell
	AttributedValue = "True"

	// Blank is the "no value" sentinel
	Blank = ""

	// IndexSeparator joins identifier and term values in the search index
	IndexSeparator = "||"

	// TermsMimeType is the content type of the artifact
	TermsMimeType = "text/tab-separated-values"
)

// Host integration constants
const (
	// ErrorField is the dataset field holding the last processing failure
	ErrorField = "searchterms_error"

	// ErrorMessagePrefix prefixes the human-readable failure stored on the dataset
	ErrorMessagePrefix = "Unable to process your data file for search. Error: "

	// TaskType is the task-status type for resource processing jobs
	TaskType = "searchterms"

	// TaskKey is the task-status key for resource processing jobs
	TaskKey = "searchterms"

	// QueueName is the named background queue jobs are submitted to
	QueueName = "searchterms"

	// IndexExtrasKey is the per-chunk suffix of pre-index extras keys
	IndexExtrasKey = "_search_term_"

	// IndexExtrasPrefix prefixes the keys attached to the indexable record
	IndexExtrasPrefix = "extras_"

	// AllDatasets is the dataset spec selecting every dataset
	AllDatasets = "all"
)

// Timeout constants define various timeout durations used in the application
const (
	// JobTimeout is the timeout of a single resource processing job
	JobTimeout = 6 * time.Hour

	// DefaultHTTPTimeout is the standard timeout for requests to the host API
	DefaultHTTPTimeout = 30 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the server and queue
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// IndexChunkSize is the number of flattened cells per pre-index extras key
	IndexChunkSize = 100

	// SearchPageSize is the page size used when listing every dataset
	SearchPageSize = 1000

	// DefaultWorkers is the default number of queue workers
	DefaultWorkers = 2

	// QueueBufferSize is the default buffer size of the job queue
	QueueBufferSize = 1024
)

// Path constants
const (
	// StorageEnvVar names the environment variable holding the storage root
	StorageEnvVar = "CKAN_STORAGE_PATH"

	// ResourcesDir is the directory under the storage root holding uploads
	ResourcesDir = "resources"
)
