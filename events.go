package searchterms

import (
	"context"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/logging"
)

// ResourceEvents schedules jobs for resource lifecycle events. Each
// method returns the queue job id, or "" when no job was scheduled.
type ResourceEvents interface {
	// AfterCreate schedules processing of a newly created resource.
	AfterCreate(ctx context.Context, resource *host.Resource) (string, error)

	// BeforeUpdate records whether the update carries a new file and
	// returns that flag.
	BeforeUpdate(ctx context.Context, resource *host.Resource, upload bool) bool

	// AfterUpdate schedules reprocessing when a new file was uploaded,
	// either as passed or as recorded by BeforeUpdate.
	AfterUpdate(ctx context.Context, resource *host.Resource, fileUploaded bool) (string, error)

	// BeforeDelete schedules removal of the resource's contribution.
	BeforeDelete(ctx context.Context, resource *host.Resource) (string, error)
}

// AfterCreate schedules a job for an eligible new resource. The reserved
// artifact itself and resources without a dataset are skipped.
func (c *client) AfterCreate(ctx context.Context, resource *host.Resource) (string, error) {
	ok, err := c.accepts(ctx, resource)
	if err != nil || !ok {
		return "", err
	}
	return c.schedule(ctx, job{kind: JobCreate, resource: resource, index: c.options.indexAfterJob})
}

// BeforeUpdate records whether a file upload accompanies the update.
func (c *client) BeforeUpdate(_ context.Context, resource *host.Resource, upload bool) bool {
	if resource == nil || resource.PackageID == "" {
		return false
	}
	c.uploads.set(resource.ID, upload)
	return upload
}

// AfterUpdate schedules an update job when a new file was uploaded.
func (c *client) AfterUpdate(ctx context.Context, resource *host.Resource, fileUploaded bool) (string, error) {
	if resource == nil {
		return "", nil
	}
	if recorded := c.uploads.take(resource.ID); !recorded && !fileUploaded {
		logging.FromContext(ctx).Debug().Str("resource_id", resource.ID).Msg("Update without a new file; skipping")
		return "", nil
	}
	ok, err := c.accepts(ctx, resource)
	if err != nil || !ok {
		return "", err
	}
	return c.schedule(ctx, job{kind: JobUpdate, resource: resource, updated: true, index: c.options.indexAfterJob})
}

// BeforeDelete schedules a retraction for an eligible resource.
func (c *client) BeforeDelete(ctx context.Context, resource *host.Resource) (string, error) {
	ok, err := c.accepts(ctx, resource)
	if err != nil || !ok {
		return "", err
	}
	return c.schedule(ctx, job{kind: JobDelete, resource: resource, index: c.options.indexAfterJob})
}

// accepts reports whether a resource gets processed. A missing extension
// is a configuration error.
func (c *client) accepts(ctx context.Context, resource *host.Resource) (bool, error) {
	if resource == nil || resource.Name == constants.TermsResourceName || resource.PackageID == "" {
		return false, nil
	}
	if _, err := c.registry.Extractor(); err != nil {
		return false, err
	}
	eligible, err := c.registry.IsEligible(resource)
	if err != nil {
		return false, err
	}
	if !eligible {
		logging.FromContext(ctx).Debug().Str("resource_id", resource.ID).Msg("Resource is not eligible for search terms")
	}
	return eligible, nil
}
