package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/searchterms/pkg/terms"
)

// Operation names the kind of reconciliation that produced a result.
type Operation string

const (
	// OperationMerge folds a resource contribution into the table.
	OperationMerge Operation = "merge"
	// OperationRetract removes a resource's contribution from the table.
	OperationRetract Operation = "retract"
)

// Result represents the outcome of a reconciliation operation.
type Result struct {
	// Table is the new consolidated table. It is never nil.
	Table *terms.Table

	// ResourceID is the resource whose contribution was reconciled
	ResourceID string

	// Metadata
	Metadata ResultMetadata

	// Warnings collects non-fatal anomalies found in the inputs
	Warnings []string
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	Operation Operation
	Updated   bool
	Strategy  StrategyType
	JoinKey   []string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Stats     ResultStatistics
}

// ResultStatistics contains statistics about the reconciliation.
type ResultStatistics struct {
	RowsBefore          int
	RowsAfter           int
	RowsAdded           int
	RowsMatched         int
	RowsRetracted       int
	OrphansPruned       int
	DuplicatesCollapsed int
	ColumnsDropped      int
	TotalTimeMs         int64
}

// IsEmpty reports whether the resulting table has no rows.
func (r *Result) IsEmpty() bool {
	return r.Table.Empty()
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	s := r.Metadata.Stats
	switch r.Metadata.Operation {
	case OperationRetract:
		return fmt.Sprintf("Retracted %s: %d rows removed, %d remaining", r.ResourceID, s.RowsRetracted, s.RowsAfter)
	default:
		return fmt.Sprintf("Merged %s: %d added, %d matched, %d removed, %d rows total",
			r.ResourceID, s.RowsAdded, s.RowsMatched, s.RowsRetracted+s.OrphansPruned, s.RowsAfter)
	}
}

// NewResult creates a new result with defaults.
func NewResult(operation Operation, resourceID string) *Result {
	return &Result{
		ResourceID: resourceID,
		Warnings:   []string{},
		Metadata: ResultMetadata{
			Operation: operation,
			StartTime: time.Now(),
		},
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
	r.Metadata.Stats.TotalTimeMs = r.Metadata.Duration.Milliseconds()
	r.Metadata.Stats.RowsAfter = r.Table.Len()
}
