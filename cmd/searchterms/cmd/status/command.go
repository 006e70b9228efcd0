// Package status provides the status command.
package status

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/searchterms/internal/appcontext"
	"github.com/agentstation/searchterms/internal/cmd/output"
	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/logging"
)

// NewCommand creates the status command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var states []string

	cmd := &cobra.Command{
		Use:     "status [resource-id]",
		GroupID: "inspect",
		Short:   "Show the search terms job state of resources",
		Long: `Status shows the job state recorded for one resource.

Without a resource id it lists the records of the local task store
(task_store), optionally filtered by --state.`,
		Example: `  searchterms status 6c1d3e0e-0c4f-4b7b-9a55-2b4f2f7d1f10
  searchterms status --state error -o table`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			format := output.Format(app.OutputFormat())

			if len(args) == 0 {
				return list(cmd, app, format, states)
			}

			plugin, err := app.Plugin(ctx)
			if err != nil {
				return err
			}
			status, err := plugin.Status(ctx, args[0])
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), format, status, nil)
		},
	}

	cmd.Flags().StringSliceVar(&states, "state", nil, "filter listed records by state (pending, running, complete, error)")
	return cmd
}

func list(cmd *cobra.Command, app appcontext.Interface, format output.Format, states []string) error {
	filter := make([]host.TaskState, 0, len(states))
	for _, s := range states {
		switch st := host.TaskState(s); st {
		case host.StateSubmitting, host.StatePending, host.StateRunning, host.StateComplete, host.StateError:
			filter = append(filter, st)
		default:
			return errors.NewValidationError("state", s, "unknown task state")
		}
	}

	store, err := app.TaskStore(cmd.Context())
	if err != nil {
		return err
	}
	records, err := store.List(cmd.Context(), constants.TaskType, filter...)
	if err != nil {
		return err
	}

	table := output.Data{
		Headers: []string{"Resource", "State", "Job", "Error", "Updated"},
		Rows:    make([][]string, 0, len(records)),
	}
	for _, r := range records {
		table.Rows = append(table.Rows, []string{
			r.EntityID, string(r.State), r.Value, r.Error, r.LastUpdated.Format(time.RFC3339),
		})
	}
	return output.Print(cmd.OutOrStdout(), format, records, &table)
}
