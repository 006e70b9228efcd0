package searchterms

import (
	"context"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/terms"
)

// Compile-time interface check to ensure proper implementation.
var _ Persistence = (*client)(nil)

// Persistence reads stored state without changing it.
type Persistence interface {
	// Terms returns the consolidated table of a dataset (by id or name),
	// or nil when it has none.
	Terms(ctx context.Context, dataset string) (*terms.Table, error)

	// Status returns the job state recorded for a resource.
	Status(ctx context.Context, resourceID string) (*host.TaskStatus, error)
}

// Terms implements Persistence. Unusable artifacts are reported, not
// evicted; eviction is left to the next job for the dataset.
func (c *client) Terms(ctx context.Context, dataset string) (*terms.Table, error) {
	cred, err := c.siteUser(ctx)
	if err != nil {
		return nil, err
	}
	d, err := c.catalog.ShowDataset(ctx, cred, dataset)
	if err != nil {
		return nil, errors.WrapResource("show", "dataset", dataset, err)
	}
	return c.store.Read(ctx, d)
}

// Status implements Persistence.
func (c *client) Status(ctx context.Context, resourceID string) (*host.TaskStatus, error) {
	cred, err := c.siteUser(ctx)
	if err != nil {
		return nil, err
	}
	return c.statuses.TaskStatus(ctx, cred, resourceID, constants.TaskType, constants.TaskKey)
}
