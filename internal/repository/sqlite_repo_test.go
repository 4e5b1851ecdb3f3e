package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"sensor-ingest/internal/database"
	"sensor-ingest/internal/model"
)

func newTestSQLite(t *testing.T) *database.SQLite {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "sensores.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(context.Background()))

	return db
}

func TestSQLiteUserRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSQLiteUserRepository(newTestSQLite(t).DB)

	id, err := repo.Create(ctx, "alice", []byte("hash-a"), model.RoleAdmin)
	require.NoError(t, err)
	require.Positive(t, id)

	user, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, model.User{ID: id, Username: "alice", PasswordHash: []byte("hash-a"), Role: model.RoleAdmin}, user)

	_, err = repo.Create(ctx, "alice", []byte("hash-b"), model.RoleUser)
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = repo.FindByUsername(ctx, "bob")
	require.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestSQLiteUserRepositoryConcurrentDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSQLiteUserRepository(newTestSQLite(t).DB)

	const attempts = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		succeeded  int
		duplicates int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, "sensor-bot", []byte("hash"), model.RoleUser)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, model.ErrUserAlreadyExists):
				duplicates++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, succeeded)
	require.Equal(t, attempts-1, duplicates)
}

func TestSQLiteReadingRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewSQLiteReadingRepository(newTestSQLite(t).DB)

	readings, err := repo.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, readings)
	require.Empty(t, readings)

	firstID, err := repo.Insert(ctx, 1, 21.5, 45.25)
	require.NoError(t, err)
	secondID, err := repo.Insert(ctx, 2, 29.99, 69.01)
	require.NoError(t, err)
	require.Greater(t, secondID, firstID)

	readings, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	require.Equal(t, firstID, readings[0].ID)
	require.Equal(t, int64(1), readings[0].SensorID)
	require.Equal(t, 21.5, readings[0].Temperature)
	require.Equal(t, 45.25, readings[0].Humidity)
	require.False(t, readings[0].RecordedAt.IsZero())
	require.Equal(t, secondID, readings[1].ID)

	cleared, err := repo.Clear(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), cleared)

	readings, err = repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, readings)
}
