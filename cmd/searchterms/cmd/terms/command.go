// Package terms provides the terms command, which prints a dataset's
// consolidated search terms table.
package terms

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/searchterms/internal/appcontext"
	"github.com/agentstation/searchterms/internal/cmd/output"
	"github.com/agentstation/searchterms/pkg/logging"
)

// NewCommand creates the terms command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "terms <dataset-id|dataset-name>",
		GroupID: "inspect",
		Short:   "Print the consolidated search terms of a dataset",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			plugin, err := app.Plugin(ctx)
			if err != nil {
				return err
			}
			table, err := plugin.Terms(ctx, args[0])
			if err != nil {
				return err
			}
			if table == nil {
				app.Logger().Info().Str("dataset", args[0]).Msg("Dataset has no search terms")
			}
			data := output.TermsData(table)
			return output.Print(cmd.OutOrStdout(), output.Format(app.OutputFormat()), output.TermsRows(table), &data)
		},
	}
}
