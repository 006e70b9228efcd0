package searchterms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/extension"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/logging"
	"github.com/agentstation/searchterms/pkg/reconciler"
)

// job is one unit of resource processing.
type job struct {
	kind     JobKind
	resource *host.Resource
	updated  bool
	index    bool
}

// schedule records the job as submitted, enqueues it and records it as
// pending with its queue job id. The job waits for the pending record
// before it starts so the states never go backwards.
func (c *client) schedule(ctx context.Context, j job) (string, error) {
	logger := logging.FromContext(ctx)
	cred, err := c.siteUser(ctx)
	if err != nil {
		return "", err
	}
	if err := c.setStatus(ctx, cred, j.resource.ID, host.StateSubmitting, "", ""); err != nil {
		return "", err
	}

	ready := make(chan struct{})
	jobID, err := c.queue.Enqueue(ctx, host.Job{
		Queue:     constants.QueueName,
		Title:     fmt.Sprintf("%s search terms for resource %s", j.kind, j.resource.ID),
		Partition: j.resource.PackageID,
		Timeout:   c.options.jobTimeout,
		Run: func(ctx context.Context, jobID string) error {
			select {
			case <-ready:
			case <-ctx.Done():
				return ctx.Err()
			}
			return c.run(ctx, jobID, j)
		},
	})
	if err != nil {
		close(ready)
		_ = c.setStatus(ctx, cred, j.resource.ID, host.StateError, "", err.Error())
		return "", errors.WrapResource("enqueue", "job", j.resource.ID, err)
	}
	defer close(ready)

	if err := c.setStatus(ctx, cred, j.resource.ID, host.StatePending, jobID, ""); err != nil {
		logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to record pending job")
	}
	logger.Info().
		Str("job_id", jobID).
		Str("kind", string(j.kind)).
		Str("resource_id", j.resource.ID).
		Str("dataset_id", j.resource.PackageID).
		Msg("Enqueued search terms job")
	return jobID, nil
}

// run executes a job. Background jobs and foreground resubmission share
// this path; foreground runs have no job id.
func (c *client) run(ctx context.Context, jobID string, j job) error {
	datasetID := j.resource.PackageID
	ctx = logging.WithResource(logging.WithDataset(ctx, datasetID), j.resource.ID)
	if jobID != "" {
		ctx = logging.WithJob(ctx, jobID)
	}
	logger := logging.FromContext(ctx)
	start := time.Now()
	event := JobEvent{JobID: jobID, Kind: j.kind, DatasetID: datasetID, ResourceID: j.resource.ID}

	cred, err := c.siteUser(ctx)
	if err != nil {
		return c.fail(ctx, host.Credential{}, event, err)
	}

	unlock := c.locks.Lock(datasetID)
	defer unlock()

	if err := c.setStatus(ctx, cred, j.resource.ID, host.StateRunning, jobID, ""); err != nil {
		logger.Warn().Err(err).Msg("Failed to record running job")
	}

	if j.kind == JobDelete {
		event.Result, err = c.retract(ctx, cred, j)
	} else {
		event.Result, err = c.merge(ctx, cred, j)
	}
	if err != nil {
		event.Result = nil
		return c.fail(ctx, cred, event, err)
	}

	if err := c.setStatus(ctx, cred, j.resource.ID, host.StateComplete, jobID, ""); err != nil {
		logger.Warn().Err(err).Msg("Failed to record completed job")
	}
	jobsTotal.WithLabelValues(string(j.kind), outcomeComplete).Inc()
	jobDuration.WithLabelValues(string(j.kind)).Observe(time.Since(start).Seconds())
	if event.Result != nil {
		tableRows.Observe(float64(event.Result.Metadata.Stats.RowsAfter))
		logger.Info().Msg(event.Result.Summary())
	}
	c.hooks.completed(event)

	if j.index {
		return c.submitIndex(ctx, cred, datasetID)
	}
	return nil
}

// merge extracts the resource's terms and folds them into the dataset's
// table. An extraction failure leaves the stored table untouched.
func (c *client) merge(ctx context.Context, cred host.Credential, j job) (*reconciler.Result, error) {
	logger := logging.FromContext(ctx)
	dataset, err := c.catalog.ShowDataset(ctx, cred, j.resource.PackageID)
	if err != nil {
		return nil, errors.WrapResource("show", "dataset", j.resource.PackageID, err)
	}

	logger.Info().Str("resource_name", j.resource.Name).Msg("Generating search terms")
	existing, err := c.store.Load(ctx, cred, dataset)
	if err != nil {
		return nil, err
	}

	req := extension.Request{Resource: j.resource, Dataset: dataset, Existing: existing}
	if c.files.Exists(j.resource.ID) {
		req.Path, _ = c.files.Path(j.resource.ID)
	}
	contribution, err := c.registry.Extract(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := c.reconciler.Merge(ctx, existing, contribution, j.resource.ID, j.updated)
	if err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		logger.Warn().Msg(w)
	}
	return result, c.persist(ctx, cred, dataset, result)
}

// retract removes the resource's contribution from the dataset's table.
// The artifact is removed when no rows remain.
func (c *client) retract(ctx context.Context, cred host.Credential, j job) (*reconciler.Result, error) {
	dataset, err := c.catalog.ShowDataset(ctx, cred, j.resource.PackageID)
	if err != nil {
		return nil, errors.WrapResource("show", "dataset", j.resource.PackageID, err)
	}
	existing, err := c.store.Load(ctx, cred, dataset)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		logging.FromContext(ctx).Debug().Msg("Dataset has no search terms to update")
		return nil, nil
	}

	result, err := c.reconciler.Retract(ctx, existing, j.resource.ID)
	if err != nil {
		return nil, err
	}
	return result, c.persist(ctx, cred, dataset, result)
}

// persist saves a non-empty result, removes the artifact for an empty
// one, and clears the dataset's processing error.
func (c *client) persist(ctx context.Context, cred host.Credential, dataset *host.Dataset, result *reconciler.Result) error {
	if result.IsEmpty() {
		logging.FromContext(ctx).Info().Msg("No search terms remain; removing the search terms resource")
		if err := c.store.Remove(ctx, cred, dataset); err != nil {
			return err
		}
	} else if _, err := c.store.Save(ctx, cred, dataset, result.Table); err != nil {
		return err
	}
	return c.catalog.PatchDataset(ctx, cred, dataset.ID, map[string]any{constants.ErrorField: constants.Blank})
}

// fail records a job failure on the task status and the dataset.
// Configuration errors are deployment faults, not resource failures, and
// are only logged.
func (c *client) fail(ctx context.Context, cred host.Credential, event JobEvent, err error) error {
	logger := logging.FromContext(ctx)
	if errors.IsConfigError(err) {
		jobsTotal.WithLabelValues(string(event.Kind), outcomeFatal).Inc()
		logger.Error().Err(err).Msg("Search terms job cannot run")
		return err
	}

	if errors.IsExtractionError(err) {
		jobsTotal.WithLabelValues(string(event.Kind), outcomeRejected).Inc()
		logger.Warn().Err(err).Msg("Extension rejected the resource")
	} else {
		jobsTotal.WithLabelValues(string(event.Kind), outcomeError).Inc()
		logger.Error().Err(err).Msg("Search terms job failed")
	}

	if event.ResourceID != "" {
		if serr := c.setStatus(ctx, cred, event.ResourceID, host.StateError, event.JobID, err.Error()); serr != nil {
			logger.Warn().Err(serr).Msg("Failed to record job error")
		}
	}
	if event.DatasetID != "" {
		fields := map[string]any{constants.ErrorField: constants.ErrorMessagePrefix + err.Error()}
		if perr := c.catalog.PatchDataset(ctx, cred, event.DatasetID, fields); perr != nil {
			logger.Warn().Err(perr).Msg("Failed to record error on dataset")
		}
	}
	c.hooks.failed(event, err)
	return err
}

// submitIndex hands the dataset to the downstream indexer.
func (c *client) submitIndex(ctx context.Context, cred host.Credential, datasetID string) error {
	logger := logging.FromContext(ctx)
	if c.indexer == nil {
		logger.Debug().Str("dataset_id", datasetID).Msg("No indexer configured")
		return nil
	}
	if err := c.indexer.SubmitForIndexing(ctx, cred, datasetID); err != nil {
		indexSubmissions.WithLabelValues(outcomeError).Inc()
		logger.Error().Err(err).Str("dataset_id", datasetID).Msg("Failed to submit search terms for indexing")
		return errors.WrapResource("index", "dataset", datasetID, err)
	}
	indexSubmissions.WithLabelValues(outcomeComplete).Inc()
	logger.Debug().Str("dataset_id", datasetID).Msg("Submitted search terms for indexing")
	return nil
}

func (c *client) setStatus(ctx context.Context, cred host.Credential, resourceID string, state host.TaskState, value, errMsg string) error {
	return c.statuses.UpdateTaskStatus(ctx, cred, host.TaskStatus{
		EntityID:    resourceID,
		EntityType:  "resource",
		TaskType:    constants.TaskType,
		Key:         constants.TaskKey,
		State:       state,
		Value:       value,
		Error:       errMsg,
		LastUpdated: time.Now().UTC(),
	})
}

// keyedMutex serializes work per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock locks key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// uploadFlags carries "a file accompanied this update" from BeforeUpdate
// to AfterUpdate.
type uploadFlags struct {
	mu    sync.Mutex
	flags map[string]bool
}

func newUploadFlags() *uploadFlags {
	return &uploadFlags{flags: make(map[string]bool)}
}

func (u *uploadFlags) set(resourceID string, uploaded bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.flags[resourceID] = uploaded
}

func (u *uploadFlags) take(resourceID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	uploaded := u.flags[resourceID]
	delete(u.flags, resourceID)
	return uploaded
}
