package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/searchterms"
	"github.com/agentstation/searchterms/internal/server"
	"github.com/agentstation/searchterms/internal/taskstore"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/extension"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	mock := &appcontext.Mock{
//	    PluginFunc: func(context.Context) (searchterms.Plugin, error) {
//	        return plugin, nil
//	    },
//	}
//	cmd := submit.NewCommand(mock)
type Mock struct {
	PluginFunc       func(ctx context.Context) (searchterms.Plugin, error)
	TaskStoreFunc    func(ctx context.Context) (*taskstore.Store, error)
	RegistryFunc     func() (*extension.Registry, error)
	ServerConfigFunc func() server.Config
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
}

// Plugin returns a plugin using the mock function or nil.
func (m *Mock) Plugin(ctx context.Context) (searchterms.Plugin, error) {
	if m.PluginFunc != nil {
		return m.PluginFunc(ctx)
	}
	return nil, nil
}

// TaskStore returns a store using the mock function or a configuration error.
func (m *Mock) TaskStore(ctx context.Context) (*taskstore.Store, error) {
	if m.TaskStoreFunc != nil {
		return m.TaskStoreFunc(ctx)
	}
	return nil, errors.NewConfigError("task store", "no task store configured", nil)
}

// Registry returns a registry using the mock function or an empty one.
func (m *Mock) Registry() (*extension.Registry, error) {
	if m.RegistryFunc != nil {
		return m.RegistryFunc()
	}
	return extension.NewRegistry(), nil
}

// ServerConfig returns the mock server config or the defaults.
func (m *Mock) ServerConfig() server.Config {
	if m.ServerConfigFunc != nil {
		return m.ServerConfigFunc()
	}
	return server.DefaultConfig()
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
