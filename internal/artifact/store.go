// Package artifact persists a dataset's consolidated terms table as the
// reserved "Search Terms" resource: a UTF-8 tab-separated file uploaded
// through the host and stored under the host's file storage layout.
package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/agentstation/searchterms/internal/storage"
	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/logging"
	"github.com/agentstation/searchterms/pkg/terms"
)

// Store loads, saves and removes the reserved artifact of a dataset.
type Store struct {
	catalog host.Catalog
	files   storage.Layout
	tempDir string
}

// Option configures a Store.
type Option func(*Store)

// WithTempDir sets where temporary artifact files are written.
func WithTempDir(dir string) Option {
	return func(s *Store) {
		s.tempDir = dir
	}
}

// NewStore creates a store over the host catalog and file layout.
func NewStore(catalog host.Catalog, files storage.Layout, opts ...Option) *Store {
	s := &Store{catalog: catalog, files: files, tempDir: os.TempDir()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the dataset's consolidated table, or nil when there is none.
// Artifacts that cannot be used (missing file, non-text bytes, malformed
// table or the legacy schema) are deleted and treated as absent.
func (s *Store) Load(ctx context.Context, cred host.Credential, dataset *host.Dataset) (*terms.Table, error) {
	logger := logging.FromContext(ctx)
	var table *terms.Table
	for _, rsc := range dataset.ResourcesNamed(constants.TermsResourceName) {
		if table != nil {
			// superseded duplicates are deleted by the next save
			continue
		}
		t, err := s.load(dataset.ID, rsc.ID)
		if err == nil {
			logger.Debug().Str("artifact_id", rsc.ID).Int("rows", t.Len()).Msg("Found existing search terms")
			table = t
			continue
		}
		if !errors.Is(err, errors.ErrUnusableArtifact) {
			return nil, err
		}
		logger.Warn().Err(err).Str("artifact_id", rsc.ID).Msg("Existing search terms are unusable; deleting the resource")
		if err := s.catalog.DeleteResource(ctx, cred, rsc.ID); err != nil && !errors.IsNotFound(err) {
			return nil, errors.WrapResource("delete", "artifact", rsc.ID, err)
		}
	}
	return table, nil
}

// Read returns the table stored for the first reserved artifact without
// evicting anything. It returns nil when the dataset has no artifact or the
// artifact has no file yet. Unusable artifacts are reported as an ArtifactError.
func (s *Store) Read(ctx context.Context, dataset *host.Dataset) (*terms.Table, error) {
	named := dataset.ResourcesNamed(constants.TermsResourceName)
	if len(named) == 0 {
		return nil, nil
	}
	t, err := s.load(dataset.ID, named[0].ID)
	if errors.IsNotFound(err) {
		logging.FromContext(ctx).Debug().Str("artifact_id", named[0].ID).Msg("Search terms resource exists but file does not")
		return nil, nil
	}
	return t, err
}

// Save replaces the dataset's artifact with t. Existing reserved artifacts
// are deleted before the new one is created. The temporary file is removed
// on every path.
func (s *Store) Save(ctx context.Context, cred host.Credential, dataset *host.Dataset, t *terms.Table) (*host.Resource, error) {
	logger := logging.FromContext(ctx)

	path := filepath.Join(s.tempDir, "searchterms-"+uuid.NewString()+".tsv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, constants.FilePermissions)
	if err != nil {
		return nil, errors.WrapIO("create", path, err)
	}
	defer func() {
		_ = f.Close()
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to remove temporary search terms file")
		}
	}()

	logger.Debug().Str("path", path).Msg("Writing temporary search terms file")
	if err := Encode(f, t); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.WrapIO("seek", path, err)
	}

	if err := s.Remove(ctx, cred, dataset); err != nil {
		return nil, err
	}

	rsc, err := s.catalog.CreateResource(ctx, cred, host.Upload{
		DatasetID: dataset.ID,
		Name:      constants.TermsResourceName,
		Filename:  filepath.Base(path),
		Format:    "TSV",
		MimeType:  constants.TermsMimeType,
		Extras:    map[string]any{"resource_file_type": ""},
		Body:      f,
	})
	if err != nil {
		return nil, errors.WrapResource("create", "artifact", dataset.ID, err)
	}
	logger.Info().Str("artifact_id", rsc.ID).Int("rows", t.Len()).Msg("Created search terms resource")
	return rsc, nil
}

// Remove deletes every reserved artifact of the dataset.
func (s *Store) Remove(ctx context.Context, cred host.Credential, dataset *host.Dataset) error {
	for _, rsc := range dataset.ResourcesNamed(constants.TermsResourceName) {
		if err := s.catalog.DeleteResource(ctx, cred, rsc.ID); err != nil && !errors.IsNotFound(err) {
			return errors.WrapResource("delete", "artifact", rsc.ID, err)
		}
		logging.FromContext(ctx).Debug().Str("artifact_id", rsc.ID).Msg("Deleted search terms resource")
	}
	return nil
}

func (s *Store) read(resourceID string) (*terms.Table, error) {
	f, err := s.files.Open(resourceID)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// load reads the artifact, reporting failures that make it unusable as an
// ArtifactError.
func (s *Store) load(datasetID, resourceID string) (*terms.Table, error) {
	t, err := s.read(resourceID)
	if err != nil && unusable(err) {
		return nil, &errors.ArtifactError{
			DatasetID:  datasetID,
			ResourceID: resourceID,
			Reason:     err.Error(),
			Err:        err,
		}
	}
	return t, err
}

// unusable reports load failures that evict the artifact.
func unusable(err error) bool {
	var parseErr *errors.ParseError
	return errors.IsNotFound(err) ||
		errors.Is(err, ErrNotText) ||
		errors.Is(err, errors.ErrLegacySchema) ||
		errors.As(err, &parseErr) ||
		errors.IsValidationError(err)
}
