// Package terms implements the in-memory terms table: a rectangular,
// all-string table whose columns are classified by name into identifier,
// term, attribution and search index columns.
package terms

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
)

// keySeparator joins key cell values; it cannot appear in TSV cells.
const keySeparator = "\x1f"

// Table is a terms table. Cells are strings and the blank string means
// "no value". A Table is not safe for concurrent mutation.
type Table struct {
	columns []string
	pos     map[string]int
	rows    [][]string
}

// New creates an empty table with the given columns. Repeated names are
// ignored.
func New(columns ...string) *Table {
	t := &Table{pos: make(map[string]int, len(columns))}
	for _, c := range columns {
		t.AddColumn(c, constants.Blank)
	}
	return t
}

// FromRecords builds a table from a header row followed by data rows.
// Short rows are padded with blanks. Attribution cells are normalized to
// the canonical true value or blank. A table carrying the legacy schema
// marker column is rejected with ErrLegacySchema.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, errors.NewValidationError("header", nil, "terms table has no header row")
	}
	header := records[0]
	t := New()
	for _, c := range header {
		if c == constants.LegacySchemaMarker {
			return nil, errors.ErrLegacySchema
		}
		if t.Has(c) {
			return nil, &errors.ParseError{Format: "tsv", Line: 1, Message: fmt.Sprintf("duplicate column %q", c)}
		}
		t.AddColumn(c, constants.Blank)
	}
	for i, rec := range records[1:] {
		if len(rec) > len(header) {
			return nil, &errors.ParseError{
				Format:  "tsv",
				Line:    i + 2,
				Message: fmt.Sprintf("row has %d fields, header has %d", len(rec), len(header)),
			}
		}
		row := make([]string, len(header))
		copy(row, rec)
		t.rows = append(t.rows, row)
	}
	for _, c := range t.Schema().Attributions {
		p := t.pos[c]
		for _, row := range t.rows {
			row[p] = normalizeFlag(row[p])
		}
	}
	return t, nil
}

// Records returns the header followed by every row.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, slices.Clone(t.columns))
	for _, row := range t.rows {
		out = append(out, slices.Clone(row))
	}
	return out
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// Schema classifies the table's columns.
func (t *Table) Schema() Schema {
	return SchemaOf(t.columns)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Has reports whether the table has the named column.
func (t *Table) Has(column string) bool {
	_, ok := t.pos[column]
	return ok
}

// Get returns the cell at row i. Missing columns read as blank.
func (t *Table) Get(i int, column string) string {
	p, ok := t.pos[column]
	if !ok {
		return constants.Blank
	}
	return t.rows[i][p]
}

// Set writes the cell at row i, adding the column if needed.
func (t *Table) Set(i int, column, value string) {
	t.AddColumn(column, constants.Blank)
	t.rows[i][t.pos[column]] = value
}

// Column returns a copy of every value of the named column.
func (t *Table) Column(column string) []string {
	p, ok := t.pos[column]
	if !ok {
		return nil
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[p]
	}
	return out
}

// Row returns row i as a column-to-value map.
func (t *Table) Row(i int) map[string]string {
	out := make(map[string]string, len(t.columns))
	for p, c := range t.columns {
		out[c] = t.rows[i][p]
	}
	return out
}

// AddColumn appends a column filled with fill. It returns false when the
// column already exists.
func (t *Table) AddColumn(column, fill string) bool {
	if t.Has(column) {
		return false
	}
	if t.pos == nil {
		t.pos = make(map[string]int)
	}
	t.pos[column] = len(t.columns)
	t.columns = append(t.columns, column)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], fill)
	}
	return true
}

// Append adds a row given positionally in column order.
func (t *Table) Append(values ...string) error {
	if len(values) != len(t.columns) {
		return errors.NewValidationError("row", values,
			fmt.Sprintf("expected %d values, got %d", len(t.columns), len(values)))
	}
	t.rows = append(t.rows, slices.Clone(values))
	return nil
}

// AppendRow adds a row given as a column-to-value map. Unknown columns are
// added to the table.
func (t *Table) AppendRow(values map[string]string) {
	for _, c := range sortedKeys(values) {
		t.AddColumn(c, constants.Blank)
	}
	row := make([]string, len(t.columns))
	for c, v := range values {
		row[t.pos[c]] = v
	}
	t.rows = append(t.rows, row)
}

// DropColumn removes a column. It returns false when the column is absent.
func (t *Table) DropColumn(column string) bool {
	p, ok := t.pos[column]
	if !ok {
		return false
	}
	t.columns = slices.Delete(t.columns, p, p+1)
	for i, row := range t.rows {
		t.rows[i] = slices.Delete(row, p, p+1)
	}
	t.reindex()
	return true
}

// Stamp adds the attribution column of a resource with every row set, and
// returns the column name.
func (t *Table) Stamp(resourceID string) string {
	column := AttributionColumn(resourceID)
	t.DropColumn(column)
	t.AddColumn(column, constants.AttributedValue)
	return column
}

// Attributed reports whether row i has at least one true attribution cell.
func (t *Table) Attributed(i int) bool {
	for _, c := range t.Schema().Attributions {
		if IsTrue(t.rows[i][t.pos[c]]) {
			return true
		}
	}
	return false
}

// PruneOrphans drops rows without any true attribution and returns how
// many were removed.
func (t *Table) PruneOrphans() int {
	attributions := t.Schema().Attributions
	kept := t.rows[:0]
	for _, row := range t.rows {
		for _, c := range attributions {
			if IsTrue(row[t.pos[c]]) {
				kept = append(kept, row)
				break
			}
		}
	}
	removed := len(t.rows) - len(kept)
	clear(t.rows[len(kept):])
	t.rows = kept
	return removed
}

// Normalize reorders the columns canonically.
func (t *Table) Normalize() {
	order := t.Schema().Ordered()
	if slices.Equal(order, t.columns) {
		return
	}
	perm := make([]int, len(order))
	for i, c := range order {
		perm[i] = t.pos[c]
	}
	for i, row := range t.rows {
		next := make([]string, len(row))
		for j, p := range perm {
			next[j] = row[p]
		}
		t.rows[i] = next
	}
	t.columns = order
	t.reindex()
}

// KeyOf returns the key of row i over the given columns.
func (t *Table) KeyOf(i int, columns []string) string {
	parts := make([]string, len(columns))
	for j, c := range columns {
		parts[j] = t.Get(i, c)
	}
	return strings.Join(parts, keySeparator)
}

// IdentityOf returns the identity of row i under schema s: its key
// values, or its identifier and term values when every identifier cell is
// blank. Rows with the same identity are one row.
func (t *Table) IdentityOf(i int, s Schema) string {
	for _, c := range s.Identifiers {
		if t.Get(i, c) != "" {
			return t.KeyOf(i, s.Key())
		}
	}
	return t.KeyOf(i, s.Content())
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		columns: slices.Clone(t.columns),
		pos:     make(map[string]int, len(t.pos)),
		rows:    make([][]string, len(t.rows)),
	}
	for c, p := range t.pos {
		out.pos[c] = p
	}
	for i, row := range t.rows {
		out.rows[i] = slices.Clone(row)
	}
	return out
}

func (t *Table) reindex() {
	clear(t.pos)
	for i, c := range t.columns {
		t.pos[c] = i
	}
}

func normalizeFlag(v string) string {
	if IsTrue(v) {
		return constants.AttributedValue
	}
	return constants.Blank
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
