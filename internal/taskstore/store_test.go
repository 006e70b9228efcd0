package taskstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func status(id string, state host.TaskState) host.TaskStatus {
	return host.TaskStatus{
		EntityID: id,
		TaskType: constants.TaskType,
		Key:      constants.TaskKey,
		State:    state,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.True(t, errors.IsValidationError(err))
}

func TestUpsertAndShow(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	cred := host.Credential{User: "site"}

	pending := status("res-1", host.StatePending)
	pending.Value = "job-1"
	require.NoError(t, s.UpdateTaskStatus(ctx, cred, pending))

	got, err := s.TaskStatus(ctx, cred, "res-1", constants.TaskType, constants.TaskKey)
	require.NoError(t, err)
	assert.Equal(t, host.StatePending, got.State)
	assert.Equal(t, "job-1", got.Value)
	assert.Equal(t, "resource", got.EntityType)
	assert.False(t, got.LastUpdated.IsZero())

	failed := status("res-1", host.StateError)
	failed.Error = "bad file"
	failed.LastUpdated = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.UpdateTaskStatus(ctx, cred, failed))

	got, err = s.TaskStatus(ctx, cred, "res-1", constants.TaskType, constants.TaskKey)
	require.NoError(t, err)
	assert.Equal(t, host.StateError, got.State)
	assert.Equal(t, "bad file", got.Error)
	assert.Empty(t, got.Value)
	assert.True(t, failed.LastUpdated.Equal(got.LastUpdated))
}

func TestTaskStatusNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.TaskStatus(context.Background(), host.Credential{}, "missing", constants.TaskType, constants.TaskKey)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateRequiresEntity(t *testing.T) {
	s := setupTestStore(t)
	err := s.UpdateTaskStatus(context.Background(), host.Credential{}, host.TaskStatus{})
	assert.True(t, errors.IsValidationError(err))
}

func TestList(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, st := range []host.TaskState{host.StateComplete, host.StateError, host.StateRunning} {
		rec := status([]string{"a", "b", "c"}[i], st)
		rec.LastUpdated = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.UpdateTaskStatus(ctx, host.Credential{}, rec))
	}

	all, err := s.List(ctx, constants.TaskType)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].EntityID)

	failed, err := s.List(ctx, constants.TaskType, host.StateError, host.StateRunning)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, []string{"c", "b"}, []string{failed[0].EntityID, failed[1].EntityID})
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.UpdateTaskStatus(ctx, host.Credential{}, status("res-9", host.StateComplete)))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.TaskStatus(ctx, host.Credential{}, "res-9", constants.TaskType, constants.TaskKey)
	require.NoError(t, err)
	assert.Equal(t, host.StateComplete, got.State)
}
