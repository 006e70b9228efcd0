// Package memory provides an in-process host: datasets, resources and
// task statuses held in memory, with uploaded files written under a real
// storage layout. It backs the local run mode and orchestration tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/searchterms/internal/storage"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
)

// SiteUserName is the user name of the site credential.
const SiteUserName = "site-user"

var (
	_ host.Catalog      = (*Host)(nil)
	_ host.TaskStatuses = (*Host)(nil)
	_ host.Indexer      = (*Host)(nil)
)

type taskKey struct {
	entityID, taskType, key string
}

// Host is an in-memory host application.
type Host struct {
	mu       sync.Mutex
	files    storage.Layout
	datasets map[string]*host.Dataset
	fields   map[string]map[string]any
	statuses map[taskKey]host.TaskStatus
	indexed  []string
	failures map[string]error
	calls    []string
}

// New creates an empty host storing uploads under files.
func New(files storage.Layout) *Host {
	return &Host{
		files:    files,
		datasets: make(map[string]*host.Dataset),
		fields:   make(map[string]map[string]any),
		statuses: make(map[taskKey]host.TaskStatus),
		failures: make(map[string]error),
	}
}

// Files returns the storage layout uploads are written to.
func (h *Host) Files() storage.Layout {
	return h.files
}

// AddDataset registers a dataset. Resources are copied.
func (h *Host) AddDataset(d *host.Dataset) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := cloneDataset(d)
	for _, r := range c.Resources {
		r.PackageID = c.ID
	}
	h.datasets[c.ID] = c
}

// AddResource attaches a resource to a dataset, generating an id when
// none is set, and returns a copy of it.
func (h *Host) AddResource(datasetID string, r *host.Resource) (*host.Resource, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.datasets[datasetID]
	if !ok {
		return nil, errors.NewNotFoundError("dataset", datasetID)
	}
	c := cloneResource(r)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.PackageID = datasetID
	d.Resources = append(d.Resources, c)
	return cloneResource(c), nil
}

// Dataset returns a copy of a dataset, or nil.
func (h *Host) Dataset(id string) *host.Dataset {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.datasets[id]; ok {
		return cloneDataset(d)
	}
	return nil
}

// Fields returns the patched fields of a dataset other than the modeled ones.
func (h *Host) Fields(id string) map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return maps.Clone(h.fields[id])
}

// Indexed returns the dataset ids submitted for indexing, in order.
func (h *Host) Indexed() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.indexed)
}

// Calls returns the names of the host actions invoked, in order.
func (h *Host) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.calls)
}

// Fail makes every later call of the named action return err until
// cleared with a nil err. Action names are the method names.
func (h *Host) Fail(action string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.failures, action)
		return
	}
	h.failures[action] = err
}

// call records an action and returns its injected failure. Callers hold mu.
func (h *Host) call(action string) error {
	h.calls = append(h.calls, action)
	return h.failures[action]
}

// SiteUser returns the site credential.
func (h *Host) SiteUser(_ context.Context) (host.Credential, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.call("SiteUser"); err != nil {
		return host.Credential{}, err
	}
	return host.Credential{User: SiteUserName, IgnoreAuth: true}, nil
}

// ShowDataset returns a dataset by id or name.
func (h *Host) ShowDataset(_ context.Context, _ host.Credential, idOrName string) (*host.Dataset, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.call("ShowDataset"); err != nil {
		return nil, err
	}
	d := h.lookup(idOrName)
	if d == nil {
		return nil, errors.NewNotFoundError("dataset", idOrName)
	}
	return cloneDataset(d), nil
}

// SearchDatasets pages through datasets ordered by name.
func (h *Host) SearchDatasets(_ context.Context, _ host.Credential, q host.SearchQuery) (*host.SearchPage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.call("SearchDatasets"); err != nil {
		return nil, err
	}
	var matched []*host.Dataset
	for _, d := range h.datasets {
		if d.Private && !q.IncludePrivate {
			continue
		}
		if q.Query != "" && !strings.Contains(d.Name, q.Query) {
			continue
		}
		matched = append(matched, d)
	}
	slices.SortFunc(matched, func(a, b *host.Dataset) int { return strings.Compare(a.Name, b.Name) })

	page := &host.SearchPage{Count: len(matched), Results: []*host.Dataset{}}
	start := min(q.Start, len(matched))
	end := len(matched)
	if q.Rows > 0 {
		end = min(start+q.Rows, len(matched))
	}
	for _, d := range matched[start:end] {
		page.Results = append(page.Results, cloneDataset(d))
	}
	return page, nil
}

// PatchDataset updates dataset fields.
func (h *Host) PatchDataset(_ context.Context, _ host.Credential, datasetID string, fields map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.call("PatchDataset"); err != nil {
		return err
	}
	d, ok := h.datasets[datasetID]
	if !ok {
		return errors.NewNotFoundError("dataset", datasetID)
	}
	for k, v := range fields {
		switch k {
		case "searchterms_error":
			d.SearchtermsError, _ = v.(string)
		case "title":
			d.Title, _ = v.(string)
		default:
			if h.fields[datasetID] == nil {
				h.fields[datasetID] = make(map[string]any)
			}
			h.fields[datasetID][k] = v
		}
	}
	return nil
}

// CreateResource stores the upload under the storage layout and attaches
// a new resource to the dataset.
func (h *Host) CreateResource(_ context.Context, _ host.Credential, upload host.Upload) (*host.Resource, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.call("CreateResource"); err != nil {
		return nil, err
	}
	d, ok := h.datasets[upload.DatasetID]
	if !ok {
		return nil, errors.NewNotFoundError("dataset", upload.DatasetID)
	}
	r := &host.Resource{
		ID:        uuid.NewString(),
		PackageID: d.ID,
		Name:      upload.Name,
		URL:       upload.Filename,
		URLType:   "upload",
		Format:    upload.Format,
		MimeType:  upload.MimeType,
		Extras:    maps.Clone(upload.Extras),
	}
	if upload.Body != nil {
		if _, err := h.files.Write(r.ID, upload.Body); err != nil {
			return nil, err
		}
	}
	d.Resources = append(d.Resources, r)
	return cloneResource(r), nil
}

// DeleteResource detaches a resource and removes its file.
func (h *Host) DeleteResource(_ context.Context, _ host.Credential, resourceID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.call("DeleteResource"); err != nil {
		return err
	}
	for _, d := range h.datasets {
		for i, r := range d.Resources {
			if r.ID == resourceID {
				d.Resources = slices.Delete(d.Resources, i, i+1)
				return h.files.Remove(resourceID)
			}
		}
	}
	return errors.NewNotFoundError("resource", resourceID)
}

// UpdateTaskStatus stores a task status, stamping LastUpdated when unset.
func (h *Host) UpdateTaskStatus(_ context.Context, _ host.Credential, status host.TaskStatus) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.call("UpdateTaskStatus"); err != nil {
		return err
	}
	if status.LastUpdated.IsZero() {
		status.LastUpdated = time.Now().UTC()
	}
	h.statuses[taskKey{status.EntityID, status.TaskType, status.Key}] = status
	return nil
}

// TaskStatus returns a stored task status.
func (h *Host) TaskStatus(_ context.Context, _ host.Credential, entityID, taskType, key string) (*host.TaskStatus, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.call("TaskStatus"); err != nil {
		return nil, err
	}
	s, ok := h.statuses[taskKey{entityID, taskType, key}]
	if !ok {
		return nil, errors.NewNotFoundError("task status", entityID)
	}
	return &s, nil
}

// SubmitForIndexing records the submission.
func (h *Host) SubmitForIndexing(_ context.Context, _ host.Credential, datasetID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.call("SubmitForIndexing"); err != nil {
		return err
	}
	if _, ok := h.datasets[datasetID]; !ok {
		return errors.NewNotFoundError("dataset", datasetID)
	}
	h.indexed = append(h.indexed, datasetID)
	return nil
}

func (h *Host) lookup(idOrName string) *host.Dataset {
	if d, ok := h.datasets[idOrName]; ok {
		return d
	}
	for _, d := range h.datasets {
		if d.Name == idOrName {
			return d
		}
	}
	return nil
}

func cloneDataset(d *host.Dataset) *host.Dataset {
	c := *d
	c.Resources = make([]*host.Resource, len(d.Resources))
	for i, r := range d.Resources {
		c.Resources[i] = cloneResource(r)
	}
	return &c
}

func cloneResource(r *host.Resource) *host.Resource {
	c := *r
	c.Extras = maps.Clone(r.Extras)
	return &c
}
