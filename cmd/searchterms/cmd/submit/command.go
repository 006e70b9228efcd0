// Package submit provides the submit command: bulk reprocessing of the
// eligible resources of one dataset or of every dataset.
package submit

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/searchterms"
	"github.com/agentstation/searchterms/internal/appcontext"
	"github.com/agentstation/searchterms/internal/cmd/output"
	"github.com/agentstation/searchterms/pkg/logging"
)

// NewCommand creates the submit command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var foreground bool

	cmd := &cobra.Command{
		Use:     "submit <dataset-id|dataset-name|all>",
		GroupID: "core",
		Short:   "Reprocess the search terms of a dataset, or of all datasets",
		Long: `Submit reprocesses every eligible resource of the named dataset, or of
every dataset when "all" is given, and then submits each affected dataset
for indexing.

By default jobs run on the background worker pool and the command waits
for them to finish. With --fg each resource is processed in turn before
the next one starts.`,
		Example: `  searchterms submit my-dataset
  searchterms submit all --fg -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			plugin, err := app.Plugin(ctx)
			if err != nil {
				return err
			}

			result, err := plugin.Submit(ctx, args[0], foreground)
			if result == nil {
				return err
			}
			if !foreground && len(result.JobIDs) > 0 {
				app.Logger().Info().Int("jobs", len(result.JobIDs)).Msg("Waiting for search terms jobs")
				if werr := searchterms.Wait(ctx, plugin); werr != nil {
					return werr
				}
			}
			if perr := output.Print(cmd.OutOrStdout(), output.Format(app.OutputFormat()), result, nil); perr != nil {
				return perr
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&foreground, "fg", false, "process resources one at a time in the foreground")
	return cmd
}
