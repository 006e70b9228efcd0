package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/searchterms/cmd/searchterms/cmd/run"
	"github.com/agentstation/searchterms/cmd/searchterms/cmd/serve"
	"github.com/agentstation/searchterms/cmd/searchterms/cmd/status"
	"github.com/agentstation/searchterms/cmd/searchterms/cmd/submit"
	"github.com/agentstation/searchterms/cmd/searchterms/cmd/terms"
	"github.com/agentstation/searchterms/internal/appcontext"
)

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(submit.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a))
	rootCmd.AddCommand(run.NewCommand(a))

	rootCmd.AddCommand(status.NewCommand(a))
	rootCmd.AddCommand(terms.NewCommand(a))

	rootCmd.AddCommand(a.newVersionCommand())
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("searchterms %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
