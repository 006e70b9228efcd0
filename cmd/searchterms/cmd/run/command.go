// Package run provides the run command: a local mode that builds the
// consolidated search terms table of a set of files without a CKAN
// instance.
package run

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/searchterms"
	"github.com/agentstation/searchterms/internal/appcontext"
	"github.com/agentstation/searchterms/internal/cmd/output"
	"github.com/agentstation/searchterms/internal/storage"
	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/host/memory"
	"github.com/agentstation/searchterms/pkg/logging"
)

// Options are the flags of the run command.
type Options struct {
	Dataset    string
	StorageDir string
	Summary    bool
}

// NewCommand creates the run command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:     "run <file>...",
		GroupID: "core",
		Short:   "Build a search terms table from local files",
		Long: `Run loads each file as a resource of one in-memory dataset, processes
every resource in the foreground with the configured extension, and
prints the resulting consolidated table.

The resource format is taken from the file extension, so with the
default tabular extension only .csv and .tsv files are eligible.`,
		Example: `  searchterms run genes.csv variants.tsv
  searchterms run --dataset genes --storage ./store data/*.csv -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd, app, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Dataset, "dataset", "local", "name of the in-memory dataset")
	cmd.Flags().StringVar(&opts.StorageDir, "storage", "", "storage root to keep files and the table in (default: a temporary directory)")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "print the submission summary instead of the table")
	return cmd
}

// Run executes the run command.
func Run(cmd *cobra.Command, app appcontext.Interface, opts *Options, files []string) error {
	logger := app.Logger()
	ctx := logging.WithLogger(cmd.Context(), logger)

	root := opts.StorageDir
	if root == "" {
		tmp, err := os.MkdirTemp("", "searchterms-run-")
		if err != nil {
			return errors.WrapIO("create", "temporary storage", err)
		}
		defer os.RemoveAll(tmp)
		root = tmp
	}

	h := memory.New(storage.New(root))
	datasetID := uuid.NewString()
	h.AddDataset(&host.Dataset{ID: datasetID, Name: opts.Dataset, Title: opts.Dataset})

	for _, path := range files {
		if err := addFile(h, datasetID, path, logger); err != nil {
			return err
		}
	}

	registry, err := app.Registry()
	if err != nil {
		return err
	}
	plugin, err := searchterms.New(h,
		searchterms.WithRegistry(registry),
		searchterms.WithStoragePath(root),
		searchterms.WithTempDir(root),
	)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		_ = plugin.Close(closeCtx)
	}()

	result, err := plugin.Submit(ctx, datasetID, true)
	if err != nil {
		return err
	}
	if d := h.Dataset(datasetID); d != nil && d.SearchtermsError != "" {
		logger.Warn().Str("dataset", opts.Dataset).Msg(d.SearchtermsError)
	}

	format := output.Format(app.OutputFormat())
	if opts.Summary {
		return output.Print(cmd.OutOrStdout(), format, result, nil)
	}

	table, err := plugin.Terms(ctx, datasetID)
	if err != nil {
		return err
	}
	data := output.TermsData(table)
	return output.Print(cmd.OutOrStdout(), format, output.TermsRows(table), &data)
}

// addFile copies a local file into storage as a new upload resource.
func addFile(h *memory.Host, datasetID, path string, logger *zerolog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	defer f.Close()

	id := uuid.NewString()
	if _, err := h.Files().Write(id, f); err != nil {
		return err
	}
	name := filepath.Base(path)
	format := strings.ToUpper(strings.TrimPrefix(filepath.Ext(name), "."))
	if _, err := h.AddResource(datasetID, &host.Resource{
		ID:      id,
		Name:    name,
		URL:     name,
		URLType: "upload",
		Format:  format,
	}); err != nil {
		return err
	}
	logger.Debug().Str("file", path).Str("resource_id", id).Str("format", format).Msg("Added local resource")
	return nil
}
