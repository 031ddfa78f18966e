package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

func TestWatermarkStore(t *testing.T) {
	store := NewWatermarkStore()
	ctx := context.Background()

	w, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, w.IsZero())

	committed := domain.Watermark{LastProcessedDate: date("2025-02-01")}
	require.NoError(t, store.Commit(ctx, committed))

	w, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, committed, w)

	require.NoError(t, store.Clear(ctx))
	w, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, w.IsZero())
}

func TestRunLock_LeaseExpiry(t *testing.T) {
	lock := NewRunLock()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	lock.SetClock(func() time.Time { return now })

	require.NoError(t, lock.Acquire(ctx, "a", time.Minute))
	assert.ErrorIs(t, lock.Acquire(ctx, "b", time.Minute), domain.ErrPipelineRunning)
	require.NoError(t, lock.Acquire(ctx, "a", time.Minute), "holder renews")

	now = now.Add(2 * time.Minute)
	require.NoError(t, lock.Acquire(ctx, "b", time.Minute), "expired lease is taken over")
	assert.Equal(t, "b", lock.Owner())

	require.NoError(t, lock.Release(ctx, "a"))
	assert.Equal(t, "b", lock.Owner(), "only the holder releases")
	require.NoError(t, lock.Release(ctx, "b"))
	assert.Empty(t, lock.Owner())

	assert.ErrorIs(t, lock.Acquire(ctx, "", time.Minute), domain.ErrInvalidInput)
}

func TestRunHistoryStore_NewestFirst(t *testing.T) {
	store := NewRunHistoryStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.RecordRun(ctx, &domain.RunReport{ID: id}))
	}
	assert.ErrorIs(t, store.RecordRun(ctx, nil), domain.ErrInvalidInput)

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}

func TestSchedulerStore(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()

	task, err := store.GetTask(ctx, domain.TaskIDIncrementalIngest)
	require.NoError(t, err)
	assert.Nil(t, task)

	next := time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDIncrementalIngest, NextRun: next}))

	task, err = store.GetTask(ctx, domain.TaskIDIncrementalIngest)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, next, task.NextRun)
}
