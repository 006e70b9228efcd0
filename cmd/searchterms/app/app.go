// Package app provides the application context and dependency management
// for the searchterms CLI: configuration, logging, and the lazily built
// plugin with its host client, task store and extension.
package app

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/searchterms"
	"github.com/agentstation/searchterms/internal/ckan"
	"github.com/agentstation/searchterms/internal/server"
	"github.com/agentstation/searchterms/internal/taskstore"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/extension"
	"github.com/agentstation/searchterms/pkg/extension/tabular"
	"github.com/agentstation/searchterms/pkg/logging"
)

// App represents the searchterms application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Lazily created, guarded by mu
	mu       sync.Mutex
	plugin   searchterms.Plugin
	registry *extension.Registry
	store    *taskstore.Store
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// Registry returns the extension registry, registering the configured
// extension on first use. With extension "none" the registry stays
// empty and every hook fails with a configuration error.
func (a *App) Registry() (*extension.Registry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registryLocked()
}

func (a *App) registryLocked() (*extension.Registry, error) {
	if a.registry != nil {
		return a.registry, nil
	}
	registry := extension.NewRegistry()
	switch a.config.Extension {
	case "tabular", "":
		if err := registry.Register(tabular.New(a.config.Formats, a.config.Columns)); err != nil {
			return nil, err
		}
	case "none":
	default:
		return nil, errors.NewConfigError("extension", "unknown extension "+strconv.Quote(a.config.Extension), nil)
	}
	a.registry = registry
	return registry, nil
}

// Plugin returns the plugin wired to the configured CKAN instance,
// creating it on first use.
func (a *App) Plugin(ctx context.Context) (searchterms.Plugin, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.plugin != nil {
		return a.plugin, nil
	}

	if a.config.CKANURL == "" {
		return nil, errors.NewConfigError("config", "ckan_url is not set", nil)
	}
	client, err := ckan.New(a.config.CKANURL, a.config.CKANAPIKey,
		ckan.WithAuthScheme(a.config.CKANAuthScheme),
		ckan.WithIndexAction(a.config.IndexAction),
	)
	if err != nil {
		return nil, err
	}

	registry, err := a.registryLocked()
	if err != nil {
		return nil, err
	}
	opts := []searchterms.Option{
		searchterms.WithRegistry(registry),
		searchterms.WithSerializeDatasets(a.config.SerializeDatasets),
		searchterms.WithIndexAfterJob(a.config.IndexAfterJob),
	}
	// Zero values keep the plugin defaults.
	if a.config.QueueWorkers > 0 {
		opts = append(opts, searchterms.WithWorkers(a.config.QueueWorkers))
	}
	if a.config.JobTimeout > 0 {
		opts = append(opts, searchterms.WithJobTimeout(a.config.JobTimeout))
	}
	if a.config.StoragePath != "" {
		opts = append(opts, searchterms.WithStoragePath(a.config.StoragePath))
	}
	if a.config.TaskStore != "" {
		store, err := a.taskStoreLocked(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, searchterms.WithTaskStatuses(store))
	}

	plugin, err := searchterms.New(client, opts...)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().
		Str("ckan_url", a.config.CKANURL).
		Int("workers", a.config.QueueWorkers).
		Bool("task_store", a.store != nil).
		Msg("Created search terms plugin")
	a.plugin = plugin
	return plugin, nil
}

// TaskStore returns the local task-status store, opening it on first use.
func (a *App) TaskStore(ctx context.Context) (*taskstore.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.taskStoreLocked(ctx)
}

func (a *App) taskStoreLocked(ctx context.Context) (*taskstore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if a.config.TaskStore == "" {
		return nil, errors.NewConfigError("config", "task_store is not set", nil)
	}
	store, err := taskstore.Open(ctx, a.config.TaskStore)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// ServerConfig returns the webhook server configuration.
func (a *App) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	if host, port, err := net.SplitHostPort(a.config.Listen); err == nil {
		cfg.Host = host
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	cfg.RateLimit = a.config.RateLimit
	if a.config.WebhookAPIKey != "" {
		cfg.AuthEnabled = true
		cfg.APIKey = a.config.WebhookAPIKey
	}
	return cfg
}

// Shutdown drains the plugin's queue and closes the task store.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.plugin != nil {
		if err := a.plugin.Close(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Failed to drain search terms jobs during shutdown")
			errs = append(errs, err)
		}
		a.plugin = nil
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	return errors.Join(errs...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		logger := NewLogger(config)
		a.logger = &logger
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithPlugin sets a prebuilt plugin (useful for testing).
func WithPlugin(plugin searchterms.Plugin) Option {
	return func(a *App) error {
		a.plugin = plugin
		return nil
	}
}

// setDefaultLogger routes library logging through the app logger.
func (a *App) setDefaultLogger() {
	logging.SetDefault(*a.logger)
}
