package reconciler_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentstation/searchterms/pkg/terms"
)

// table builds a terms table from a header and rows.
func table(t *testing.T, header []string, rows ...[]string) *terms.Table {
	t.Helper()
	tbl, err := terms.FromRecords(append([][]string{header}, rows...))
	require.NoError(t, err)
	return tbl
}

// rowSet returns the data rows as sorted, tab-joined lines so tables can be
// compared regardless of row order.
func rowSet(tbl *terms.Table) []string {
	recs := tbl.Records()[1:]
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = strings.Join(r, "\t")
	}
	slices.Sort(out)
	return out
}

// assertInvariants checks the properties every reconciled table holds.
func assertInvariants(t *testing.T, tbl *terms.Table) {
	t.Helper()
	schema := tbl.Schema()

	require.Equal(t, schema.Ordered(), tbl.Columns(), "columns are not in canonical order")

	seen := map[string]bool{}
	for i := 0; i < tbl.Len(); i++ {
		require.True(t, tbl.Attributed(i), "row %d is orphaned", i)

		k := tbl.IdentityOf(i, schema)
		require.False(t, seen[k], "duplicate row identity %q", k)
		seen[k] = true

		values := make([]string, 0)
		for _, c := range schema.Content() {
			values = append(values, tbl.Get(i, c))
		}
		require.Equal(t, terms.SearchIndex(values), tbl.Get(i, "search_index"), "row %d index", i)
	}
}
