package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/searchterms/pkg/errors"
)

func TestNotFoundError(t *testing.T) {
	err := pkgerrors.NewNotFoundError("dataset", "ds-1")
	assert.Equal(t, "dataset with ID ds-1 not found", err.Error())
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	assert.False(t, errors.Is(err, pkgerrors.ErrConfig))
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  *pkgerrors.ValidationError
		want string
	}{
		{
			name: "with field",
			err:  pkgerrors.NewValidationError("dataset", "", "must not be empty"),
			want: "validation failed for field dataset: must not be empty",
		},
		{
			name: "without field",
			err:  &pkgerrors.ValidationError{Message: "bad table"},
			want: "validation failed: bad table",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, pkgerrors.IsValidationError(tt.err))
		})
	}
}

func TestAPIError(t *testing.T) {
	t.Run("with status", func(t *testing.T) {
		err := pkgerrors.NewAPIError("package_show", 404, "Not found")
		assert.Contains(t, err.Error(), "package_show")
		assert.Contains(t, err.Error(), "404")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("server error is not a not found", func(t *testing.T) {
		err := pkgerrors.NewAPIError("resource_create", 500, "boom")
		assert.False(t, pkgerrors.IsNotFound(err))
	})

	t.Run("wrap helper", func(t *testing.T) {
		base := errors.New("connection refused")
		err := pkgerrors.WrapAPI("package_patch", 0, base)
		apiErr, ok := err.(*pkgerrors.APIError)
		require.True(t, ok)
		assert.Equal(t, "package_patch", apiErr.Action)
		assert.ErrorIs(t, err, base)
		assert.Nil(t, pkgerrors.WrapAPI("package_patch", 0, nil))
	})
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("extension", "no extractor registered", pkgerrors.ErrNoExtension)
	assert.True(t, pkgerrors.IsConfigError(err))
	assert.ErrorIs(t, err, pkgerrors.ErrNoExtension)
	assert.Contains(t, err.Error(), "extension")

	wrapped := pkgerrors.WrapResource("process", "resource", "r1", err)
	assert.True(t, pkgerrors.IsConfigError(wrapped))
}

func TestExtractionError(t *testing.T) {
	base := errors.New("Unsupported format")
	err := pkgerrors.NewExtractionError("r1", base)
	assert.Equal(t, "Unsupported format", err.Error())
	assert.True(t, pkgerrors.IsExtractionError(err))
	assert.ErrorIs(t, err, base)

	empty := pkgerrors.NewExtractionError("r2", nil)
	assert.Equal(t, "extraction failed for resource r2", empty.Error())
}

func TestArtifactError(t *testing.T) {
	err := &pkgerrors.ArtifactError{
		DatasetID:  "ds-1",
		ResourceID: "st-1",
		Reason:     "legacy schema",
		Err:        pkgerrors.ErrLegacySchema,
	}
	assert.Contains(t, err.Error(), "st-1")
	assert.Contains(t, err.Error(), "ds-1")
	assert.ErrorIs(t, err, pkgerrors.ErrUnusableArtifact)
	assert.ErrorIs(t, err, pkgerrors.ErrLegacySchema)
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *pkgerrors.ParseError
		contains string
	}{
		{"with line", &pkgerrors.ParseError{Format: "tsv", File: "a.tsv", Line: 3, Message: "wrong field count"}, "a.tsv:3"},
		{"with file", &pkgerrors.ParseError{Format: "tsv", File: "a.tsv", Message: "bad"}, "tsv file a.tsv"},
		{"format only", &pkgerrors.ParseError{Format: "tsv", Message: "bad"}, "tsv parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}
}

func TestIOError(t *testing.T) {
	base := errors.New("permission denied")
	err := pkgerrors.WrapIO("write", "/tmp/a.tsv", base)
	ioErr, ok := err.(*pkgerrors.IOError)
	require.True(t, ok)
	assert.Equal(t, "write", ioErr.Operation)
	assert.Contains(t, err.Error(), "/tmp/a.tsv")
	assert.ErrorIs(t, err, base)
	assert.Nil(t, pkgerrors.WrapIO("write", "x", nil))
}

func TestResourceError(t *testing.T) {
	base := errors.New("in use")
	err := pkgerrors.WrapResource("delete", "resource", "st-1", base)
	assert.Equal(t, "failed to delete resource st-1: in use", err.Error())
	assert.ErrorIs(t, err, base)

	noID := pkgerrors.WrapResource("search", "dataset", "", errors.New("down"))
	assert.Equal(t, "failed to search dataset: down", noID.Error())
	assert.Nil(t, pkgerrors.WrapResource("search", "dataset", "", nil))
}

func TestTimeoutError(t *testing.T) {
	err := pkgerrors.NewTimeoutError("job", "6h0m0s", "resource r1")
	assert.True(t, pkgerrors.IsTimeout(err))
	assert.Contains(t, err.Error(), "6h0m0s")
	assert.Contains(t, pkgerrors.NewTimeoutError("job", "", "x").Error(), "timed out: x")
}
