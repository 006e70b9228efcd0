// Package appcontext provides the shared application context interface
// used by all commands, so command packages depend on an interface rather
// than on the concrete application.
package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/searchterms"
	"github.com/agentstation/searchterms/internal/server"
	"github.com/agentstation/searchterms/internal/taskstore"
	"github.com/agentstation/searchterms/pkg/extension"
)

// Interface defines the application context interface that commands need.
// The App struct from cmd/searchterms/app implements it; tests use Mock.
type Interface interface {
	// Plugin returns the configured plugin, creating it lazily. It is
	// wired to the CKAN host named by the configuration.
	Plugin(ctx context.Context) (searchterms.Plugin, error)

	// TaskStore returns the local task-status store. It fails with a
	// configuration error when no task_store path is configured.
	TaskStore(ctx context.Context) (*taskstore.Store, error)

	// Registry returns the extension registry the plugin extracts with.
	Registry() (*extension.Registry, error)

	// ServerConfig returns the webhook server configuration.
	ServerConfig() server.Config

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
