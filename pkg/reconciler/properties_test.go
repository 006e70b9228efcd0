package reconciler_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentstation/searchterms/pkg/terms"
)

// randomContribution returns a small table drawn from a narrow vocabulary
// so that merges overlap often.
func randomContribution(rng *rand.Rand, withCode bool) *terms.Table {
	header := []string{"Term_1", "Synonym Term"}
	if withCode {
		header = append([]string{"Code"}, header...)
	}
	tbl := terms.New(header...)
	for range 1 + rng.IntN(5) {
		n := rng.IntN(6)
		row := map[string]string{"Term_1": fmt.Sprintf("term-%d", n)}
		if rng.IntN(2) == 0 {
			row["Synonym Term"] = fmt.Sprintf("syn-%d", n)
		}
		if withCode {
			row["Code"] = fmt.Sprintf("c%d", n)
		}
		tbl.AppendRow(row)
	}
	return tbl
}

func TestReconciledTablesKeepInvariants(t *testing.T) {
	r := newReconciler(t)
	ctx := context.Background()

	for seed := range uint64(25) {
		rng := rand.New(rand.NewPCG(seed, 7))
		var current *terms.Table
		contributed := map[string]bool{}

		for step := range 30 {
			resource := fmt.Sprintf("R%d", rng.IntN(4))
			var added []string
			if rng.IntN(4) == 0 && current != nil {
				result, err := r.Retract(ctx, current, resource)
				require.NoError(t, err)
				current = result.Table
				delete(contributed, resource)
			} else {
				// Mixing schemas merges tables whose identifier columns differ.
				contribution := randomContribution(rng, rng.IntN(2) == 0)
				added = contribution.Column("Term_1")
				result, err := r.Merge(ctx, current, contribution, resource, contributed[resource])
				require.NoError(t, err)
				current = result.Table
				contributed[resource] = true
			}
			t.Run(fmt.Sprintf("seed%d/step%d", seed, step), func(t *testing.T) {
				assertInvariants(t, current)
				present := current.Column("Term_1")
				for _, term := range added {
					require.Contains(t, present, term, "contributed term %q was dropped", term)
				}
			})
		}
	}
}
