package searchterms_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentstation/searchterms"
	"github.com/agentstation/searchterms/internal/storage"
	"github.com/agentstation/searchterms/pkg/extension"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/host/memory"
	"github.com/agentstation/searchterms/pkg/logging"
	"github.com/agentstation/searchterms/pkg/terms"
)

// fakeExtension serves preset contributions: CSV resources are eligible,
// and each resource's terms come from a table set by the test.
type fakeExtension struct {
	mu     sync.Mutex
	tables map[string]*terms.Table
	errs   map[string]error
	calls  int
}

func newFakeExtension() *fakeExtension {
	return &fakeExtension{tables: map[string]*terms.Table{}, errs: map[string]error{}}
}

func (f *fakeExtension) set(resourceID string, t *terms.Table) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[resourceID] = t
	delete(f.errs, resourceID)
}

func (f *fakeExtension) fail(resourceID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[resourceID] = err
}

func (f *fakeExtension) IsEligible(r *host.Resource) bool {
	return strings.EqualFold(r.Format, "csv")
}

func (f *fakeExtension) Extract(_ context.Context, req extension.Request) (*terms.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[req.Resource.ID]; err != nil {
		return nil, err
	}
	return f.tables[req.Resource.ID].Clone(), nil
}

type fixture struct {
	host   *memory.Host
	ext    *fakeExtension
	plugin searchterms.Plugin
	logs   *logging.TestLogger
	ctx    context.Context
}

func newFixture(t *testing.T, opts ...searchterms.Option) *fixture {
	t.Helper()
	h := memory.New(storage.New(t.TempDir()))
	h.AddDataset(&host.Dataset{ID: "dataset-1", Name: "genes"})

	ext := newFakeExtension()
	registry := extension.NewRegistry()
	require.NoError(t, registry.Register(ext))

	base := []searchterms.Option{
		searchterms.WithRegistry(registry),
		searchterms.WithStoragePath(h.Files().Root),
		searchterms.WithTempDir(t.TempDir()),
	}
	plugin, err := searchterms.New(h, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = plugin.Close(ctx)
	})

	tl := logging.NewTestLogger(t)
	return &fixture{
		host:   h,
		ext:    ext,
		plugin: plugin,
		logs:   tl,
		ctx:    logging.WithLogger(context.Background(), tl.Logger),
	}
}

// addResource attaches an eligible CSV resource to dataset-1.
func (f *fixture) addResource(t *testing.T, id string) *host.Resource {
	t.Helper()
	r, err := f.host.AddResource("dataset-1", &host.Resource{ID: id, Name: "data " + id, Format: "CSV"})
	require.NoError(t, err)
	return r
}

func (f *fixture) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, searchterms.Wait(ctx, f.plugin))
}

func (f *fixture) terms(t *testing.T) *terms.Table {
	t.Helper()
	tbl, err := f.plugin.Terms(f.ctx, "dataset-1")
	require.NoError(t, err)
	return tbl
}

func (f *fixture) artifacts() []*host.Resource {
	return f.host.Dataset("dataset-1").ResourcesNamed("Search Terms")
}

// genes builds a Gene/Gene Term contribution.
func genes(t *testing.T, pairs ...string) *terms.Table {
	t.Helper()
	tbl := terms.New("Gene", "Gene Term")
	for i := 0; i+1 < len(pairs); i += 2 {
		require.NoError(t, tbl.Append(pairs[i], pairs[i+1]))
	}
	return tbl
}

// byGene indexes table rows by their Gene value.
func byGene(t *terms.Table) map[string]map[string]string {
	out := map[string]map[string]string{}
	for i := range t.Len() {
		out[t.Get(i, "Gene")] = t.Row(i)
	}
	return out
}
