package extension_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/extension"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/terms"
)

type both struct {
	eligible bool
	term     string
}

func (b both) IsEligible(*host.Resource) bool { return b.eligible }

func (b both) Extract(context.Context, extension.Request) (*terms.Table, error) {
	t := terms.New("Term_1")
	return t, t.Append(b.term)
}

func TestEmptyRegistryIsAConfigError(t *testing.T) {
	r := extension.NewRegistry()

	_, err := r.IsEligible(&host.Resource{})
	assert.True(t, errors.IsConfigError(err))
	assert.ErrorIs(t, err, errors.ErrNoExtension)

	_, err = r.Extract(context.Background(), extension.Request{Resource: &host.Resource{ID: "r1"}})
	assert.True(t, errors.IsConfigError(err))
	assert.False(t, errors.IsExtractionError(err))
}

func TestLastRegisteredWins(t *testing.T) {
	r := extension.NewRegistry()
	require.NoError(t, r.Register(both{eligible: false, term: "first"}))
	require.NoError(t, r.Register(both{eligible: true, term: "second"}))

	ok, err := r.IsEligible(&host.Resource{})
	require.NoError(t, err)
	assert.True(t, ok)

	tbl, err := r.Extract(context.Background(), extension.Request{Resource: &host.Resource{ID: "r1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, tbl.Column("Term_1"))
}

func TestCallbacksRegisterIndependently(t *testing.T) {
	r := extension.NewRegistry()
	require.NoError(t, r.Register(extension.EligibilityFunc(func(*host.Resource) bool { return true })))

	_, err := r.Extractor()
	assert.True(t, errors.IsConfigError(err))

	require.NoError(t, r.Register(extension.ExtractorFunc(func(context.Context, extension.Request) (*terms.Table, error) {
		return terms.New("Term_1"), nil
	})))
	_, err = r.Extractor()
	assert.NoError(t, err)

	assert.True(t, errors.IsValidationError(r.Register(struct{}{})))
}

func TestExtractErrorsAreExtractionErrors(t *testing.T) {
	r := extension.NewRegistry()
	require.NoError(t, r.Register(extension.ExtractorFunc(func(context.Context, extension.Request) (*terms.Table, error) {
		return nil, errors.New("Unsupported file format")
	})))

	_, err := r.Extract(context.Background(), extension.Request{Resource: &host.Resource{ID: "r1"}})
	assert.True(t, errors.IsExtractionError(err))
	assert.EqualError(t, err, "Unsupported file format")

	r2 := extension.NewRegistry()
	require.NoError(t, r2.Register(extension.ExtractorFunc(func(context.Context, extension.Request) (*terms.Table, error) {
		return nil, nil
	})))
	_, err = r2.Extract(context.Background(), extension.Request{Resource: &host.Resource{ID: "r1"}})
	assert.True(t, errors.IsExtractionError(err))
}
