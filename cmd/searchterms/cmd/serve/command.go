// Package serve provides the serve command, which runs the webhook server.
package serve

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/searchterms/internal/appcontext"
	"github.com/agentstation/searchterms/internal/server"
	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/logging"
)

// NewCommand creates the serve command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Run the webhook server",
		Long: `Serve accepts resource and indexing events from the host over HTTP:

  POST /hooks/resources/created     {"resource": {...}}
  POST /hooks/resources/updated     {"resource": {...}, "upload": true}
  POST /hooks/resources/deleted     {"resource": {...}}
  POST /hooks/datasets/before-index {"id": "...", ...}
  GET  /status/{resource_id}
  GET  /terms/{dataset}
  GET  /health
  GET  /metrics

When webhook_api_key is set, every endpoint except /health and /metrics
requires it in the X-API-Key header or as a bearer token.`,
		Example: `  searchterms serve
  searchterms serve --host 0.0.0.0 --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.ServerConfig()
			if cmd.Flags().Changed("host") {
				cfg.Host, _ = cmd.Flags().GetString("host")
			}
			if cmd.Flags().Changed("port") {
				cfg.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("rate-limit") {
				cfg.RateLimit, _ = cmd.Flags().GetInt("rate-limit")
			}
			return run(cmd, app, cfg)
		},
	}

	cmd.Flags().String("host", "", "bind address (overrides listen)")
	cmd.Flags().Int("port", 0, "server port (overrides listen)")
	cmd.Flags().Int("rate-limit", 0, "requests per minute per client (0 to disable)")
	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, cfg server.Config) error {
	logger := app.Logger()
	ctx := logging.WithLogger(cmd.Context(), logger)

	plugin, err := app.Plugin(ctx)
	if err != nil {
		return err
	}
	srv, err := server.New(plugin, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to stop webhook server")
		}
	}()
	return stopped(logger, srv.ListenAndServe(ctx, constants.ShutdownTimeout))
}

// stopped reports how the server ended. A shutdown that outlived its
// timeout still stopped the server, so it is only logged.
func stopped(logger *zerolog.Logger, err error) error {
	if errors.IsTimeout(err) {
		logger.Warn().Err(err).Msg("Webhook server stopped before in-flight requests finished")
		return nil
	}
	return err
}
