// Package searchterms keeps a per-dataset consolidated search terms table
// in sync with a data catalog's resources.
//
// For every eligible resource a registered extension extracts a table of
// search terms. The plugin merges that contribution into the dataset's
// consolidated table (the reserved "Search Terms" resource), attributing
// each row to the resources that contributed it, and keeps the table
// current as resources are created, updated and deleted.
//
// Example usage:
//
//	registry := extension.NewRegistry()
//	_ = registry.Register(myExtractor)
//
//	plugin, err := searchterms.New(ckanClient,
//	    searchterms.WithRegistry(registry),
//	    searchterms.WithStoragePath("/var/lib/ckan"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer plugin.Close(context.Background())
//
//	// React to host events
//	jobID, err := plugin.AfterCreate(ctx, resource)
//
//	// Reprocess every dataset in the foreground
//	result, err := plugin.Submit(ctx, "all", true)
package searchterms

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/agentstation/searchterms/internal/artifact"
	"github.com/agentstation/searchterms/internal/queue"
	"github.com/agentstation/searchterms/internal/storage"
	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/extension"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/logging"
	"github.com/agentstation/searchterms/pkg/reconciler"
)

// Compile-time interface check to ensure proper implementation.
var _ Plugin = (*client)(nil)

// Plugin reacts to host events and maintains the consolidated tables.
type Plugin interface {

	// ResourceEvents schedules jobs for resource lifecycle events
	ResourceEvents

	// Submitter reprocesses whole datasets
	Submitter

	// Indexing contributes search terms to the host's search index
	Indexing

	// Persistence reads consolidated tables and job states
	Persistence

	// Hooks provides access to job callback registration
	Hooks

	// Close stops the plugin's own queue, waiting for accepted jobs.
	Close(ctx context.Context) error
}

// client is the internal implementation of the Plugin interface.
type client struct {
	options *options

	catalog    host.Catalog
	statuses   host.TaskStatuses
	indexer    host.Indexer
	queue      host.Queue
	ownQueue   *queue.Queue
	files      storage.Layout
	store      *artifact.Store
	registry   *extension.Registry
	reconciler reconciler.Reconciler

	locks   *keyedMutex
	uploads *uploadFlags
	reads   singleflight.Group
	hooks   *hooks
}

// New creates a Plugin over the host catalog. Task statuses and indexing
// default to the catalog when it implements those interfaces.
func New(catalog host.Catalog, opts ...Option) (Plugin, error) {
	if catalog == nil {
		return nil, errors.NewConfigError("searchterms", "a host catalog is required", nil)
	}
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	c := &client{
		options:  o,
		catalog:  catalog,
		statuses: o.statuses,
		indexer:  o.indexer,
		queue:    o.queue,
		registry: o.registry,
		locks:    newKeyedMutex(),
		uploads:  newUploadFlags(),
		hooks:    newHooks(),
	}

	if c.statuses == nil {
		ts, ok := catalog.(host.TaskStatuses)
		if !ok {
			return nil, errors.NewConfigError("searchterms", "no task status store configured and the catalog does not provide one", nil)
		}
		c.statuses = ts
	}
	if c.indexer == nil {
		if ix, ok := catalog.(host.Indexer); ok {
			c.indexer = ix
		}
	}

	if o.storagePath != "" {
		c.files = storage.New(o.storagePath)
	} else if c.files, err = storage.FromEnv(); err != nil {
		return nil, err
	}
	c.store = artifact.NewStore(catalog, c.files, artifact.WithTempDir(o.tempDir))

	if c.registry == nil {
		c.registry = extension.NewRegistry()
	}

	c.reconciler = o.reconciler
	if c.reconciler == nil {
		if c.reconciler, err = reconciler.New(); err != nil {
			return nil, err
		}
	}

	if c.queue == nil {
		q, err := queue.New(constants.QueueName,
			queue.WithWorkers(o.workers),
			queue.WithTimeout(o.jobTimeout),
			queue.WithSerializedPartitions(o.serializeDatasets),
			queue.WithLogger(logging.Default()),
		)
		if err != nil {
			return nil, err
		}
		c.queue = q
		c.ownQueue = q
	}

	return c, nil
}

// Close stops the plugin's own queue. A queue supplied with WithQueue is
// left to its owner.
func (c *client) Close(ctx context.Context) error {
	if c.ownQueue == nil {
		return nil
	}
	return c.ownQueue.Shutdown(ctx)
}

// Wait blocks until the plugin's own queue has no pending or running jobs.
// It returns immediately when the queue was supplied with WithQueue.
func Wait(ctx context.Context, p Plugin) error {
	c, ok := p.(*client)
	if !ok || c.ownQueue == nil {
		return nil
	}
	return c.ownQueue.Wait(ctx)
}

// siteUser resolves the credential background work runs as.
func (c *client) siteUser(ctx context.Context) (host.Credential, error) {
	cred, err := c.catalog.SiteUser(ctx)
	if err != nil {
		return host.Credential{}, errors.WrapResource("show", "site user", "", err)
	}
	return cred, nil
}
