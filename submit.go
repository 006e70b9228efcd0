package searchterms

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/logging"
)

// validationConcurrency bounds concurrent dataset lookups while
// validating "all".
const validationConcurrency = 8

// Submitter reprocesses whole datasets.
type Submitter interface {
	// Submit reprocesses every eligible resource of the dataset named by
	// spec (an id, a name, or "all"). In the foreground each resource is
	// processed before Submit returns; otherwise jobs are enqueued. Each
	// affected dataset is submitted for indexing once.
	Submit(ctx context.Context, spec string, foreground bool) (*SubmitResult, error)
}

// SubmitResult summarizes a resubmission.
type SubmitResult struct {
	DatasetsFound     int      `json:"datasets_found" yaml:"datasets_found"`
	DatasetsValidated int      `json:"datasets_validated" yaml:"datasets_validated"`
	DatasetsFailed    int      `json:"datasets_failed" yaml:"datasets_failed"`
	Jobs              int      `json:"jobs" yaml:"jobs"`
	JobsFailed        int      `json:"jobs_failed" yaml:"jobs_failed"`
	JobIDs            []string `json:"job_ids,omitempty" yaml:"job_ids,omitempty"`
	Enqueued          []string `json:"enqueued" yaml:"enqueued"`
	NotEnqueued       []string `json:"not_enqueued" yaml:"not_enqueued"`
}

// Submit implements Submitter.
func (c *client) Submit(ctx context.Context, spec string, foreground bool) (*SubmitResult, error) {
	if spec == "" {
		return nil, errors.NewValidationError("dataset", spec, "a dataset id, name or \"all\" is required")
	}
	if _, err := c.registry.Eligibility(); err != nil {
		return nil, err
	}
	if _, err := c.registry.Extractor(); err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx)
	cred, err := c.siteUser(ctx)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{Enqueued: []string{}, NotEnqueued: []string{}}
	var datasets []*host.Dataset
	if spec == constants.AllDatasets {
		if datasets, err = c.validateAll(ctx, cred, result); err != nil {
			return result, err
		}
	} else {
		d, err := c.catalog.ShowDataset(ctx, cred, spec)
		if err != nil {
			if errors.IsNotFound(err) {
				return result, errors.NewNotFoundError("dataset", spec)
			}
			return result, errors.WrapResource("show", "dataset", spec, err)
		}
		result.DatasetsFound, result.DatasetsValidated = 1, 1
		datasets = []*host.Dataset{d}
	}

	var indexErrs []error
	for _, d := range datasets {
		err := c.resubmit(ctx, cred, d, foreground, result)
		if errors.IsConfigError(err) {
			return result, err
		}
		if err != nil {
			indexErrs = append(indexErrs, err)
		}
		result.Enqueued = append(result.Enqueued, d.Label())
	}

	logger.Info().
		Int("found", result.DatasetsFound).
		Int("failed", result.DatasetsFailed).
		Int("submitted", result.DatasetsValidated).
		Int("jobs", result.Jobs).
		Msg("Search terms resubmission finished")
	return result, errors.Join(indexErrs...)
}

// validateAll lists every dataset page by page and re-reads each one.
// Datasets that cannot be read are counted as failed.
func (c *client) validateAll(ctx context.Context, cred host.Credential, result *SubmitResult) ([]*host.Dataset, error) {
	logger := logging.FromContext(ctx)

	var listed []*host.Dataset
	for start := 0; ; {
		page, err := c.catalog.SearchDatasets(ctx, cred, host.SearchQuery{
			Rows:           constants.SearchPageSize,
			Start:          start,
			IncludePrivate: true,
		})
		if err != nil {
			return nil, errors.WrapResource("search", "datasets", "", err)
		}
		listed = append(listed, page.Results...)
		start += len(page.Results)
		if len(page.Results) == 0 || start >= page.Count {
			break
		}
	}
	result.DatasetsFound = len(listed)
	logger.Info().Int("count", len(listed)).Msg("Found datasets")

	validated := make([]*host.Dataset, len(listed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(validationConcurrency)
	for i, d := range listed {
		g.Go(func() error {
			full, err := c.catalog.ShowDataset(gctx, cred, d.ID)
			if err != nil {
				logger.Error().Err(err).Str("dataset", d.Label()).Msg("Error validating dataset")
				return nil
			}
			validated[i] = full
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*host.Dataset
	for i, d := range validated {
		if d == nil {
			result.DatasetsFailed++
			result.NotEnqueued = append(result.NotEnqueued, listed[i].Label())
			continue
		}
		result.DatasetsValidated++
		out = append(out, d)
	}
	return out, nil
}

// resubmit processes or enqueues every eligible resource of a dataset and
// submits the dataset for indexing once. Job failures are recorded per
// resource; the returned error is a configuration error or an indexing
// failure.
func (c *client) resubmit(ctx context.Context, cred host.Credential, d *host.Dataset, foreground bool, result *SubmitResult) error {
	logger := logging.FromContext(ctx).With().Str("dataset", d.Label()).Logger()
	if len(d.Resources) == 0 {
		logger.Info().Msg("No resources found for dataset")
		return nil
	}

	logger.Info().Msg("Starting search terms jobs for dataset")
	eligible := 0
	for _, r := range d.Resources {
		if r.PackageID == "" {
			r.PackageID = d.ID
		}
		ok, err := c.accepts(ctx, r)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		eligible++

		j := job{kind: JobUpdate, resource: r, updated: true}
		if foreground {
			logger.Info().Str("resource_id", r.ID).Str("resource_name", r.Name).Msg("Checking search terms for resource")
			if err := c.run(ctx, "", j); err != nil {
				if errors.IsConfigError(err) {
					return err
				}
				result.JobsFailed++
			}
			continue
		}

		logger.Info().Str("resource_id", r.ID).Str("resource_name", r.Name).Msg("Enqueueing search terms job for resource")
		jobID, err := c.schedule(ctx, j)
		if err != nil {
			logger.Error().Err(err).Str("resource_id", r.ID).Msg("Failed to enqueue search terms job")
			result.JobsFailed++
			continue
		}
		result.JobIDs = append(result.JobIDs, jobID)
	}
	result.Jobs += eligible

	if eligible == 0 {
		return nil
	}
	if foreground {
		return c.submitIndex(ctx, cred, d.ID)
	}
	return c.enqueueIndex(ctx, d.ID)
}

// enqueueIndex schedules indexing behind the dataset's pending jobs.
func (c *client) enqueueIndex(ctx context.Context, datasetID string) error {
	_, err := c.queue.Enqueue(ctx, host.Job{
		Queue:     constants.QueueName,
		Title:     "index search terms for dataset " + datasetID,
		Partition: datasetID,
		Timeout:   c.options.jobTimeout,
		Run: func(ctx context.Context, jobID string) error {
			ctx = logging.WithJob(logging.WithDataset(ctx, datasetID), jobID)
			event := JobEvent{JobID: jobID, Kind: JobIndex, DatasetID: datasetID}
			cred, err := c.siteUser(ctx)
			if err == nil {
				err = c.submitIndex(ctx, cred, datasetID)
			}
			if err != nil {
				c.hooks.failed(event, err)
				return err
			}
			c.hooks.completed(event)
			return nil
		},
	})
	if err != nil {
		return errors.WrapResource("enqueue", "index job", datasetID, err)
	}
	return nil
}
