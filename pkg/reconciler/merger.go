package reconciler

import (
	"github.com/agentstation/searchterms/pkg/terms"
)

// merger combines rows of terms tables. Attribution cells are OR'ed and
// every other cell goes through the strategy.
type merger struct {
	strategy Strategy
}

func newMerger(strategy Strategy) *merger {
	return &merger{strategy: strategy}
}

// join performs a full outer join of base and incoming on key. Matched
// pairs become one row; unmatched rows of either side are kept. The result
// carries the ordered union of both column lists.
func (m *merger) join(base, incoming *terms.Table, key []string) (out *terms.Table, matched, added int) {
	out = terms.New(append(base.Columns(), incoming.Columns()...)...)

	byKey := make(map[string][]int, incoming.Len())
	if len(key) > 0 {
		for j := 0; j < incoming.Len(); j++ {
			k := incoming.KeyOf(j, key)
			byKey[k] = append(byKey[k], j)
		}
	}

	used := make([]bool, incoming.Len())
	for i := 0; i < base.Len(); i++ {
		row := base.Row(i)
		partners := byKey[base.KeyOf(i, key)]
		if len(key) == 0 || len(partners) == 0 {
			out.AppendRow(row)
			continue
		}
		for _, j := range partners {
			out.AppendRow(m.combine(row, incoming.Row(j)))
			used[j] = true
			matched++
		}
	}
	for j := 0; j < incoming.Len(); j++ {
		if !used[j] {
			out.AppendRow(incoming.Row(j))
			added++
		}
	}
	return out, matched, added
}

// collapse folds rows sharing an identity into the first of them. Rows
// whose identifier cells are all blank are told apart by their terms. It
// returns the number of rows folded away.
func (m *merger) collapse(t *terms.Table) (*terms.Table, int) {
	schema := t.Schema()
	out := terms.New(t.Columns()...)
	first := make(map[string]int, t.Len())
	rows := make([]map[string]string, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		k := t.IdentityOf(i, schema)
		if at, ok := first[k]; ok {
			rows[at] = m.combine(rows[at], t.Row(i))
			continue
		}
		first[k] = len(rows)
		rows = append(rows, t.Row(i))
	}
	for _, row := range rows {
		out.AppendRow(row)
	}
	return out, t.Len() - len(rows)
}

// combine merges incoming into a copy of existing.
func (m *merger) combine(existing, incoming map[string]string) map[string]string {
	row := make(map[string]string, len(existing)+len(incoming))
	for c, v := range existing {
		row[c] = v
	}
	for c, v := range incoming {
		old, ok := row[c]
		switch {
		case !ok:
			row[c] = v
		case terms.Classify(c) == terms.KindAttribution:
			if !terms.IsTrue(old) && terms.IsTrue(v) {
				row[c] = v
			}
		default:
			row[c] = m.strategy.ResolveConflict(c, old, v)
		}
	}
	return row
}
