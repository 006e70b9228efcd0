package terms

import (
	"regexp"
	"strings"

	"github.com/agentstation/searchterms/pkg/constants"
)

var separatorRun = regexp.MustCompile(`\|{3,}`)

// SearchIndex joins values with the index separator and collapses the runs
// left by blank cells.
func SearchIndex(values []string) string {
	joined := strings.Join(values, constants.IndexSeparator)
	return separatorRun.ReplaceAllString(joined, constants.IndexSeparator)
}

// RebuildIndex drops any existing search index column and recomputes it
// from the identifier and term values of every row.
func (t *Table) RebuildIndex() {
	t.DropColumn(constants.SearchIndexColumn)
	content := t.Schema().Content()
	values := make([]string, len(content))
	cells := make([]string, len(t.rows))
	for i := range t.rows {
		for j, c := range content {
			values[j] = t.Get(i, c)
		}
		cells[i] = SearchIndex(values)
	}
	t.AddColumn(constants.SearchIndexColumn, constants.Blank)
	pos := t.pos[constants.SearchIndexColumn]
	for i := range t.rows {
		t.rows[i][pos] = cells[i]
	}
}
