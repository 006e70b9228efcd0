package memory_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/searchterms/internal/storage"
	pkgerrors "github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/host/memory"
)

func TestDatasetLifecycle(t *testing.T) {
	ctx := context.Background()
	h := memory.New(storage.New(t.TempDir()))
	cred, err := h.SiteUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "site-user", cred.User)
	assert.True(t, cred.IgnoreAuth)

	h.AddDataset(&host.Dataset{ID: "d1", Name: "genes"})

	byName, err := h.ShowDataset(ctx, cred, "genes")
	require.NoError(t, err)
	assert.Equal(t, "d1", byName.ID)

	_, err = h.ShowDataset(ctx, cred, "nope")
	assert.True(t, pkgerrors.IsNotFound(err))

	rsc, err := h.CreateResource(ctx, cred, host.Upload{
		DatasetID: "d1",
		Name:      "Search Terms",
		Filename:  "terms.tsv",
		Body:      strings.NewReader("Term_1\n"),
	})
	require.NoError(t, err)
	assert.True(t, h.Files().Exists(rsc.ID))
	assert.Len(t, h.Dataset("d1").Resources, 1)

	require.NoError(t, h.DeleteResource(ctx, cred, rsc.ID))
	assert.False(t, h.Files().Exists(rsc.ID))
	assert.Empty(t, h.Dataset("d1").Resources)
	assert.True(t, pkgerrors.IsNotFound(h.DeleteResource(ctx, cred, rsc.ID)))
}

func TestShowDatasetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	h := memory.New(storage.New(t.TempDir()))
	h.AddDataset(&host.Dataset{ID: "d1", Name: "genes", Resources: []*host.Resource{{ID: "r1", Name: "a"}}})

	d, err := h.ShowDataset(ctx, host.Credential{}, "d1")
	require.NoError(t, err)
	d.Resources[0].Name = "changed"
	assert.Equal(t, "a", h.Dataset("d1").Resources[0].Name)
	assert.Equal(t, "d1", h.Dataset("d1").Resources[0].PackageID)
}

func TestSearchDatasets(t *testing.T) {
	ctx := context.Background()
	h := memory.New(storage.New(t.TempDir()))
	h.AddDataset(&host.Dataset{ID: "1", Name: "c"})
	h.AddDataset(&host.Dataset{ID: "2", Name: "a"})
	h.AddDataset(&host.Dataset{ID: "3", Name: "b", Private: true})

	page, err := h.SearchDatasets(ctx, host.Credential{}, host.SearchQuery{Rows: 2, IncludePrivate: true})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "a", page.Results[0].Name)
	assert.Equal(t, "b", page.Results[1].Name)

	page, err = h.SearchDatasets(ctx, host.Credential{}, host.SearchQuery{Rows: 2, Start: 2, IncludePrivate: true})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "c", page.Results[0].Name)

	page, err = h.SearchDatasets(ctx, host.Credential{}, host.SearchQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
}

func TestPatchAndTaskStatus(t *testing.T) {
	ctx := context.Background()
	h := memory.New(storage.New(t.TempDir()))
	h.AddDataset(&host.Dataset{ID: "d1"})

	require.NoError(t, h.PatchDataset(ctx, host.Credential{}, "d1", map[string]any{"searchterms_error": "boom", "notes": "x"}))
	assert.Equal(t, "boom", h.Dataset("d1").SearchtermsError)
	assert.Equal(t, map[string]any{"notes": "x"}, h.Fields("d1"))

	require.NoError(t, h.UpdateTaskStatus(ctx, host.Credential{}, host.TaskStatus{
		EntityID: "r1", TaskType: "searchterms", Key: "searchterms", State: host.StateRunning,
	}))
	st, err := h.TaskStatus(ctx, host.Credential{}, "r1", "searchterms", "searchterms")
	require.NoError(t, err)
	assert.Equal(t, host.StateRunning, st.State)
	assert.False(t, st.LastUpdated.IsZero())
}

func TestFailureInjection(t *testing.T) {
	ctx := context.Background()
	h := memory.New(storage.New(t.TempDir()))
	h.AddDataset(&host.Dataset{ID: "d1"})
	boom := errors.New("solr down")

	h.Fail("SubmitForIndexing", boom)
	assert.ErrorIs(t, h.SubmitForIndexing(ctx, host.Credential{}, "d1"), boom)
	h.Fail("SubmitForIndexing", nil)
	require.NoError(t, h.SubmitForIndexing(ctx, host.Credential{}, "d1"))
	assert.Equal(t, []string{"d1"}, h.Indexed())
	assert.Equal(t, []string{"SubmitForIndexing", "SubmitForIndexing"}, h.Calls())
}
