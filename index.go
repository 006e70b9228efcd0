package searchterms

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/logging"
	"github.com/agentstation/searchterms/pkg/terms"
)

// Indexing contributes search terms to the host's search index.
type Indexing interface {
	// BeforeIndex attaches the dataset's search terms to the record the
	// host is about to index and returns it.
	BeforeIndex(ctx context.Context, pkgDict map[string]any) (map[string]any, error)
}

// BeforeIndex flattens the consolidated table row by row and attaches the
// cell values in chunks of constants.IndexChunkSize, each a JSON array
// under "extras_<dataset id>_search_term_<n>". A dataset without a table,
// or whose artifact has no file yet, is returned unchanged.
func (c *client) BeforeIndex(ctx context.Context, pkgDict map[string]any) (map[string]any, error) {
	id, _ := pkgDict["id"].(string)
	if id == "" {
		return pkgDict, nil
	}
	logger := logging.FromContext(ctx)

	v, err, shared := c.reads.Do(id, func() (any, error) {
		return c.Terms(ctx, id)
	})
	if err != nil {
		logger.Error().Err(err).Str("dataset_id", id).Msg("An error occurred in building the index for dataset")
		return pkgDict, err
	}
	table, _ := v.(*terms.Table)
	if table.Empty() {
		return pkgDict, nil
	}

	cells := flatten(table)
	for i, start := 0, 0; start < len(cells); i, start = i+1, start+constants.IndexChunkSize {
		end := min(start+constants.IndexChunkSize, len(cells))
		data, err := json.Marshal(cells[start:end])
		if err != nil {
			return pkgDict, err
		}
		key := constants.IndexExtrasPrefix + id + constants.IndexExtrasKey + strconv.Itoa(i)
		pkgDict[key] = string(data)
		indexChunks.Inc()
	}
	logger.Debug().Str("dataset_id", id).Int("cells", len(cells)).Bool("shared", shared).Msg("Attached search terms to index record")
	return pkgDict, nil
}

// flatten returns the table's cells row-major, without the header.
func flatten(t *terms.Table) []string {
	records := t.Records()
	if len(records) < 2 {
		return nil
	}
	cells := make([]string, 0, (len(records)-1)*len(records[0]))
	for _, row := range records[1:] {
		cells = append(cells, row...)
	}
	return cells
}
