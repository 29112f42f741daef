package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/sales-backoffice/internal/db/dbtest"
	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/repository"
)

func newRunner(t *testing.T) (*Runner, *repository.Store) {
	store := repository.NewStore(dbtest.Open(t))
	return NewRunner(store, zerolog.Nop()), store
}

func TestRun_RecordsSuccess(t *testing.T) {
	runner, store := newRunner(t)
	ctx := context.Background()

	err := runner.Run(ctx, "birthday", "Birthday notice", func(context.Context) (string, error) {
		return "2 processed", nil
	})
	require.NoError(t, err)

	manage, err := store.Batches.GetOrCreate(ctx, "birthday", "")
	require.NoError(t, err)
	assert.Equal(t, "Birthday notice", manage.Title)
	assert.True(t, manage.IsActive)

	runs, err := store.Batches.ListRuns(ctx, "birthday")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.BatchRunSuccess, runs[0].Status)
	assert.Equal(t, "2 processed", runs[0].Message)
	assert.NotNil(t, runs[0].FinishedAt)
}

func TestRun_FailureAndPanic(t *testing.T) {
	runner, store := newRunner(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := runner.Run(ctx, "partner_cost", "", func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)

	err = runner.Run(ctx, "partner_cost", "", func(context.Context) (string, error) {
		panic("nil map")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil map")

	runs, err := store.Batches.ListRuns(ctx, "partner_cost")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, run := range runs {
		assert.Equal(t, model.BatchRunFailed, run.Status)
	}
}

func TestRun_DisabledBatchDoesNotRun(t *testing.T) {
	runner, store := newRunner(t)
	ctx := context.Background()
	_, err := store.Batches.GetOrCreate(ctx, "working_status", "Working status")
	require.NoError(t, err)
	require.NoError(t, store.Batches.SetActive(ctx, "working_status", false))

	called := false
	err = runner.Run(ctx, "working_status", "", func(context.Context) (string, error) {
		called = true
		return "", nil
	})
	assert.ErrorIs(t, err, ErrDisabled)
	assert.False(t, called)

	runs, err := store.Batches.ListRuns(ctx, "working_status")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.BatchRunDisabled, runs[0].Status)
}
