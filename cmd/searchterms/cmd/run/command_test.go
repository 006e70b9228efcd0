package run

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/searchterms/internal/appcontext"
	"github.com/agentstation/searchterms/pkg/extension"
	"github.com/agentstation/searchterms/pkg/extension/tabular"
)

func tabularApp(format string) *appcontext.Mock {
	return &appcontext.Mock{
		RegistryFunc: func() (*extension.Registry, error) {
			registry := extension.NewRegistry()
			if err := registry.Register(tabular.New([]string{"csv", "tsv"}, nil)); err != nil {
				return nil, err
			}
			return registry, nil
		},
		OutputFormatFunc: func() string { return format },
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, app appcontext.Interface, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunMergesLocalFiles(t *testing.T) {
	dir := t.TempDir()
	genes := writeFile(t, dir, "genes.csv", "Gene,Gene Term\nBRCA1,breast cancer\nTP53,tumor protein\n")
	more := writeFile(t, dir, "more.tsv", "Gene\tGene Term\nBRCA1\tbreast cancer\nEGFR\tgrowth factor\n")
	notes := writeFile(t, dir, "notes.txt", "not tabular")

	out, err := execute(t, tabularApp("json"), genes, more, notes)
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)

	byGene := map[string]map[string]string{}
	for _, row := range rows {
		byGene[row["Gene"]] = row
	}
	require.Contains(t, byGene, "BRCA1")
	assert.Equal(t, "BRCA1||breast cancer", byGene["BRCA1"]["search_index"])
	assert.Contains(t, byGene, "TP53")
	assert.Contains(t, byGene, "EGFR")

	attributed := 0
	for key, value := range byGene["BRCA1"] {
		if strings.HasPrefix(key, "rsrc-") && value == "True" {
			attributed++
		}
	}
	assert.Equal(t, 2, attributed, "BRCA1 is contributed by both eligible files")
}

func TestRunSummary(t *testing.T) {
	dir := t.TempDir()
	genes := writeFile(t, dir, "genes.csv", "Gene,Gene Term\nBRCA1,breast cancer\n")

	out, err := execute(t, tabularApp("json"), "--summary", "--dataset", "genes", genes)
	require.NoError(t, err)

	var summary struct {
		DatasetsFound int      `json:"datasets_found"`
		Jobs          int      `json:"jobs"`
		Enqueued      []string `json:"enqueued"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 1, summary.DatasetsFound)
	assert.Equal(t, 1, summary.Jobs)
	require.Len(t, summary.Enqueued, 1)
	assert.True(t, strings.HasSuffix(summary.Enqueued[0], "(genes)"))
}

func TestRunKeepsStorage(t *testing.T) {
	dir := t.TempDir()
	store := t.TempDir()
	genes := writeFile(t, dir, "genes.csv", "Gene,Gene Term\nBRCA1,breast cancer\n")

	_, err := execute(t, tabularApp("table"), "--storage", store, genes)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(store, "resources"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "uploads and the consolidated artifact stay under --storage")
}

func TestRunMissingFile(t *testing.T) {
	_, err := execute(t, tabularApp("json"), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
