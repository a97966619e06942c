package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmehdipour/wablast/internal/db"
	"github.com/jmehdipour/wablast/internal/model"
	"github.com/jmehdipour/wablast/internal/repository"
)

func newTestRepo(t *testing.T) *repository.SchedulesRepositoryImpl {
	t.Helper()
	sdb, err := db.NewSQLiteConnection(":memory:", db.SQLiteOpts{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sdb.Close() })

	repo := repository.NewSchedulesRepository(sdb)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestInsertListRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := model.Schedule{
		ID:             "2026-03-20_09:30",
		MessageFull:    "promo message",
		Days:           []int{5, 20},
		Hour:           9,
		Minute:         30,
		RecipientCount: 12,
	}
	require.NoError(t, repo.Insert(ctx, s))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, s, got[0])
}

func TestInsertDuplicateID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := model.Schedule{ID: "x", MessageFull: "m", Days: []int{1}, Hour: 9, Minute: 0}
	require.NoError(t, repo.Insert(ctx, s))
	assert.Error(t, repo.Insert(ctx, s))
}

func TestUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := model.Schedule{ID: "x", MessageFull: "before", Days: []int{1}, Hour: 9, Minute: 0, RecipientCount: 2}
	require.NoError(t, repo.Insert(ctx, s))

	s.MessageFull = "after"
	s.Days = []int{15, 28}
	s.Hour, s.Minute = 14, 45
	require.NoError(t, repo.Update(ctx, s))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "after", got[0].MessageFull)
	assert.Equal(t, []int{15, 28}, got[0].Days)
	assert.Equal(t, "14:45", got[0].TimeString())
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, model.Schedule{ID: "x", MessageFull: "m", Days: []int{1}}))
	require.NoError(t, repo.Delete(ctx, "x"))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	// deleting a missing row is not an error
	require.NoError(t, repo.Delete(ctx, "x"))
}

func TestUpdateRecipientCounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, model.Schedule{ID: "a", MessageFull: "m", Days: []int{1}, RecipientCount: 3}))
	require.NoError(t, repo.Insert(ctx, model.Schedule{ID: "b", MessageFull: "m", Days: []int{2}, RecipientCount: 3}))

	require.NoError(t, repo.UpdateRecipientCounts(ctx, 8))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	for _, s := range got {
		assert.Equal(t, 8, s.RecipientCount)
	}
}
