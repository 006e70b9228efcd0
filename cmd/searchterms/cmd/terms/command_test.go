package terms

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/searchterms"
	"github.com/agentstation/searchterms/internal/appcontext"
	"github.com/agentstation/searchterms/internal/storage"
	"github.com/agentstation/searchterms/pkg/extension"
	"github.com/agentstation/searchterms/pkg/extension/tabular"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/host/memory"
)

func newApp(t *testing.T, format string) *appcontext.Mock {
	t.Helper()
	h := memory.New(storage.New(t.TempDir()))
	h.AddDataset(&host.Dataset{ID: "dataset-1", Name: "genes"})
	h.AddDataset(&host.Dataset{ID: "dataset-2", Name: "empty"})
	_, err := h.Files().Write("resource-1", strings.NewReader("Gene,Gene Term\nBRCA1,breast cancer\nTP53,tumor protein\n"))
	require.NoError(t, err)
	_, err = h.AddResource("dataset-1", &host.Resource{ID: "resource-1", Name: "genes.csv", URLType: "upload", Format: "CSV"})
	require.NoError(t, err)

	registry := extension.NewRegistry()
	require.NoError(t, registry.Register(tabular.New([]string{"csv"}, nil)))
	plugin, err := searchterms.New(h,
		searchterms.WithRegistry(registry),
		searchterms.WithStoragePath(h.Files().Root),
		searchterms.WithTempDir(t.TempDir()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = plugin.Close(context.Background()) })

	_, err = plugin.Submit(context.Background(), "genes", true)
	require.NoError(t, err)

	return &appcontext.Mock{
		PluginFunc:       func(context.Context) (searchterms.Plugin, error) { return plugin, nil },
		OutputFormatFunc: func() string { return format },
	}
}

func execute(t *testing.T, app appcontext.Interface, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTermsJSON(t *testing.T) {
	out, err := execute(t, newApp(t, "json"), "genes")
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "BRCA1", rows[0]["Gene"])
	assert.Equal(t, "True", rows[0]["rsrc-resource-1"])
	assert.Equal(t, "TP53||tumor protein", rows[1]["search_index"])
}

func TestTermsTable(t *testing.T) {
	out, err := execute(t, newApp(t, "table"), "dataset-1")
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(out), "GENE")
	assert.Contains(t, out, "BRCA1||breast cancer")
}

func TestTermsEmptyDataset(t *testing.T) {
	out, err := execute(t, newApp(t, "json"), "empty")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}
