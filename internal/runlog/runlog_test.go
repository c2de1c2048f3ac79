package runlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	log, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func TestRunLifecycle_Complete(t *testing.T) {
	t.Parallel()

	log := openTestLog(t)
	ctx := context.Background()

	id, err := log.Start(ctx, "extract")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, log.Complete(ctx, id, 27, map[string]any{"pages": 3}))

	entries, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, id, entry.ID)
	assert.Equal(t, "extract", entry.Stage)
	assert.Equal(t, StatusComplete, entry.Status)
	assert.Equal(t, int64(27), entry.Records)
	require.NotNil(t, entry.CompletedAt)
	assert.Equal(t, float64(3), entry.Metadata["pages"])
	assert.Empty(t, entry.Error)
}

func TestRunLifecycle_Fail(t *testing.T) {
	t.Parallel()

	log := openTestLog(t)
	ctx := context.Background()

	id, err := log.Start(ctx, "reconcile")
	require.NoError(t, err)
	require.NoError(t, log.Fail(ctx, id, "hubspot: status 500"))

	entries, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusFailed, entries[0].Status)
	assert.Equal(t, "hubspot: status 500", entries[0].Error)
	require.NotNil(t, entries[0].CompletedAt)
}

func TestList_RunningRun(t *testing.T) {
	t.Parallel()

	log := openTestLog(t)
	ctx := context.Background()

	_, err := log.Start(ctx, "enrich")
	require.NoError(t, err)

	entries, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusRunning, entries[0].Status)
	assert.Nil(t, entries[0].CompletedAt)
	assert.Nil(t, entries[0].Metadata)
}

func TestList_Empty(t *testing.T) {
	t.Parallel()

	log := openTestLog(t)

	entries, err := log.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_MultipleRuns(t *testing.T) {
	t.Parallel()

	log := openTestLog(t)
	ctx := context.Background()

	for _, stage := range []string{"extract", "enrich", "reconcile"} {
		id, err := log.Start(ctx, stage)
		require.NoError(t, err)
		require.NoError(t, log.Complete(ctx, id, 0, nil))
	}

	entries, err := log.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestOpen_ReopensExistingManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	log, err := Open(path)
	require.NoError(t, err)
	id, err := log.Start(ctx, "extract")
	require.NoError(t, err)
	require.NoError(t, log.Complete(ctx, id, 5, nil))
	require.NoError(t, log.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
}
