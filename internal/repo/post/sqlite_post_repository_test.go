package post_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/instalite/internal/domain"
	"github.com/mkrupp/instalite/internal/infra/database"

	. "github.com/mkrupp/instalite/internal/repo/post"
)

func setupSQLitePostTestRepo(t *testing.T) *SQLitePostRepository {
	t.Helper()

	db, err := database.OpenSQLite(context.Background(), database.SQLiteConfig{
		DatabasePath:    filepath.Join(t.TempDir(), "posts.db"),
		BusyTimeout:     time.Second,
		ConnMaxLifetime: time.Minute,
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return NewSQLitePostRepository(db)
}

func TestSQLitePostRepository(t *testing.T) {
	t.Parallel()

	repo := setupSQLitePostTestRepo(t)
	ctx := context.Background()

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	first, err := repo.Insert(ctx, domain.Post{Title: "sunset", Image: "a.jpg", Description: "red", UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)

	second, err := repo.Insert(ctx, domain.Post{Title: "no image", UserID: 2})
	require.NoError(t, err)

	found, ok, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, found)

	posts, err = repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, *second, posts[1])

	deleted, ok, err := repo.DeleteByID(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.jpg", deleted.Image)

	_, ok, err = repo.DeleteByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLitePostRepositoryStorageFailure(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	defer db.Close()

	errBoom := errors.New("disk on fire")
	repo := NewSQLitePostRepository(database.NewSQLite(db))

	mock.ExpectQuery("DELETE FROM posts").WithArgs(int64(3)).WillReturnError(errBoom)
	mock.ExpectExec("INSERT INTO posts").WillReturnError(errBoom)

	_, ok, err := repo.DeleteByID(context.Background(), 3)
	require.ErrorIs(t, err, errBoom)
	assert.False(t, ok)

	_, err = repo.Insert(context.Background(), domain.Post{Title: "t"})
	require.ErrorIs(t, err, errBoom)

	require.NoError(t, mock.ExpectationsWereMet())
}
