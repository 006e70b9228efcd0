package logging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/searchterms/pkg/logging"
)

func TestCaptureDefaultLogger(t *testing.T) {
	tl := logging.CaptureLoggingForTest(t)

	logging.Info().Msg("info message")
	logging.Debug().Msg("debug message")

	assert.True(t, tl.Contains("info message"))
	assert.Len(t, tl.Lines(), 2)
}

func TestContextFields(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithDataset(ctx, "ds-1")
	ctx = logging.WithResource(ctx, "r-1")
	ctx = logging.WithJob(ctx, "job-9")
	ctx = logging.WithOperation(ctx, "process")
	ctx = logging.WithError(ctx, errors.New("boom"))

	logging.FromContext(ctx).Info().Msg("processing")

	out := tl.Output()
	assert.Contains(t, out, `"dataset_id":"ds-1"`)
	assert.Contains(t, out, `"resource_id":"r-1"`)
	assert.Contains(t, out, `"job_id":"job-9"`)
	assert.Contains(t, out, `"operation":"process"`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestWithFieldsAndRequestID(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithFields(ctx, map[string]any{"attempt": 2, "updated": true})
	ctx = logging.WithRequestID(ctx, "req-1")

	logging.Ctx(ctx).Info().Msg("hook")

	assert.Equal(t, "req-1", logging.RequestID(ctx))
	assert.Contains(t, tl.Output(), `"attempt":2`)
	assert.Contains(t, tl.Output(), `"updated":true`)
	assert.Contains(t, tl.Output(), `"request_id":"req-1"`)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is tolerated
	assert.Same(t, logging.Default(), logging.FromContext(nil))
	assert.Equal(t, context.Background(), logging.WithError(context.Background(), nil))
}
