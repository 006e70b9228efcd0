// Package reconciler merges per-resource search term contributions into a
// dataset's consolidated terms table. It performs no I/O: callers load the
// existing table, call Merge or Retract, and persist the returned table.
package reconciler

import (
	"context"
	"fmt"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/logging"
	"github.com/agentstation/searchterms/pkg/terms"
)

// Reconciler is the main interface for reconciling terms tables.
type Reconciler interface {
	// Merge folds the contribution of resourceID into existing. A nil
	// existing table means this is the dataset's first contribution. When
	// updated is set, the resource's previous contribution is retracted
	// before the merge.
	Merge(ctx context.Context, existing, contribution *terms.Table, resourceID string, updated bool) (*Result, error)

	// Retract removes the contribution of resourceID from existing and
	// drops the rows no other resource attributes.
	Retract(ctx context.Context, existing *terms.Table, resourceID string) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	strategy    Strategy
	searchIndex bool
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{
		strategy:    options.strategy,
		searchIndex: options.searchIndex,
	}, nil
}

// Merge performs reconciliation in clean steps.
func (r *reconciler) Merge(ctx context.Context, existing, contribution *terms.Table, resourceID string, updated bool) (*Result, error) {
	if resourceID == "" {
		return nil, errors.NewValidationError("resource_id", resourceID, "cannot be empty")
	}
	if contribution == nil {
		return nil, errors.NewValidationError("contribution", nil, "cannot be nil")
	}
	logger := logging.FromContext(ctx)
	result := NewResult(OperationMerge, resourceID)
	result.Metadata.Updated = updated
	result.Metadata.Strategy = r.strategy.Type()
	stats := &result.Metadata.Stats
	m := newMerger(r.strategy)

	// Step 1: decorate the contribution with the resource's attribution
	incoming := contribution.Clone()
	for _, c := range incoming.Schema().Attributions {
		incoming.DropColumn(c)
		result.Warnings = append(result.Warnings, fmt.Sprintf("contribution carried attribution column %q", c))
	}
	incoming.DropColumn(constants.SearchIndexColumn)
	attribution := incoming.Stamp(resourceID)

	var merged *terms.Table
	if existing == nil {
		// Step 3 base case: first contribution to the dataset
		merged = incoming
	} else {
		base := existing.Clone()
		stats.RowsBefore = base.Len()

		// Step 2: retract the superseded contribution
		if updated && base.DropColumn(attribution) {
			stats.ColumnsDropped++
			stats.RowsRetracted = base.PruneOrphans()
		}

		// Step 3: outer join on the shared key
		key := terms.JoinKey(base.Schema(), incoming.Schema())
		if len(key) == 0 {
			result.Warnings = append(result.Warnings, "tables share no key columns; rows were not matched")
		}
		result.Metadata.JoinKey = key
		merged, stats.RowsMatched, stats.RowsAdded = m.join(base, incoming, key)
	}

	// Step 4: cleanup
	merged, stats.DuplicatesCollapsed = m.collapse(merged)
	stats.OrphansPruned = merged.PruneOrphans()

	// Step 5: derived index
	r.finish(merged)

	result.Table = merged
	result.Finalize()

	logger.Debug().
		Str("resource_id", resourceID).
		Bool("updated", updated).
		Int("rows_added", stats.RowsAdded).
		Int("rows_matched", stats.RowsMatched).
		Int("rows_retracted", stats.RowsRetracted).
		Int("rows_total", stats.RowsAfter).
		Msg("Merged resource contribution")
	for _, w := range result.Warnings {
		logger.Warn().Str("resource_id", resourceID).Msg(w)
	}
	return result, nil
}

// Retract removes a resource's attribution column and the rows it leaves
// without any contributor.
func (r *reconciler) Retract(ctx context.Context, existing *terms.Table, resourceID string) (*Result, error) {
	if resourceID == "" {
		return nil, errors.NewValidationError("resource_id", resourceID, "cannot be empty")
	}
	result := NewResult(OperationRetract, resourceID)
	result.Metadata.Strategy = r.strategy.Type()
	stats := &result.Metadata.Stats

	table := existing.Clone()
	if table == nil {
		table = terms.New()
	}
	stats.RowsBefore = table.Len()

	if table.DropColumn(terms.AttributionColumn(resourceID)) {
		stats.ColumnsDropped++
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("table has no attribution column for %s", resourceID))
	}
	stats.RowsRetracted = table.PruneOrphans()
	r.finish(table)

	result.Table = table
	result.Finalize()

	logging.FromContext(ctx).Debug().
		Str("resource_id", resourceID).
		Int("rows_retracted", stats.RowsRetracted).
		Int("rows_total", stats.RowsAfter).
		Msg("Retracted resource contribution")
	return result, nil
}

// finish rebuilds or drops the search index and orders the columns.
func (r *reconciler) finish(t *terms.Table) {
	if r.searchIndex {
		t.RebuildIndex()
	} else {
		t.DropColumn(constants.SearchIndexColumn)
	}
	t.Normalize()
}
