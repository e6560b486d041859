package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/instalite/internal/domain"
	"github.com/mkrupp/instalite/internal/infra/database"
	"github.com/mkrupp/instalite/internal/infra/logging"
)

const postColumns = "id, title, image, description, created_at, updated_at, user_id"

// SQLitePostRepository implements Repository using SQLite as the storage backend.
type SQLitePostRepository struct {
	db  *database.SQLite
	log logging.Logger
}

var _ Repository = (*SQLitePostRepository)(nil)

// SQLitePostRepositoryFactory creates a factory function that returns a new SQLitePostRepository.
func SQLitePostRepositoryFactory(db *database.SQLite) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLitePostRepository(db), nil
	}
}

// NewSQLitePostRepository creates a new SQLitePostRepository on a migrated database.
func NewSQLitePostRepository(db *database.SQLite) *SQLitePostRepository {
	return &SQLitePostRepository{
		db:  db,
		log: logging.GetLogger("repo.post.sqlite_post_repository"),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var (
		post                 domain.Post
		createdAt, updatedAt int64
	)

	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Image,
		&post.Description,
		&createdAt,
		&updatedAt,
		&post.UserID,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	post.CreatedAt = time.Unix(createdAt, 0).UTC()
	post.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &post, nil
}

// Insert implements Repository.Insert using SQLite.
func (r *SQLitePostRepository) Insert(ctx context.Context, post domain.Post) (_ *domain.Post, err error) {
	log := r.log.With(logging.Group("post", "title", post.Title, "user_id", post.UserID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "insert post failed", "error", err)
		} else {
			log.DebugContext(ctx, "post inserted", "id", post.ID)
		}
	}()

	now := time.Now().UTC().Truncate(time.Second)
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}

	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}

	err = r.db.WithWriteLock(func() error {
		res, err := r.db.ExecContext(ctx,
			"INSERT INTO posts (title, image, description, created_at, updated_at, user_id) VALUES (?, ?, ?, ?, ?, ?)",
			post.Title,
			post.Image,
			post.Description,
			post.CreatedAt.Unix(),
			post.UpdatedAt.Unix(),
			post.UserID,
		)
		if err != nil {
			return err //nolint:wrapcheck
		}

		post.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	return &post, nil
}

// FindByID implements Repository.FindByID using SQLite.
func (r *SQLitePostRepository) FindByID(ctx context.Context, id int64) (*domain.Post, bool, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE id = ?", id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query post: %w", err)
	}

	return post, true, nil
}

// DeleteByID implements Repository.DeleteByID using SQLite.
func (r *SQLitePostRepository) DeleteByID(ctx context.Context, id int64) (post *domain.Post, ok bool, err error) {
	log := r.log.With(logging.Group("post", "id", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "delete post failed", "error", err)
		} else {
			log.DebugContext(ctx, "post deleted", "found", ok)
		}
	}()

	err = r.db.WithWriteLock(func() error {
		var err error

		post, err = scanPost(r.db.QueryRowContext(ctx,
			"DELETE FROM posts WHERE id = ? RETURNING "+postColumns, id,
		))

		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("delete post: %w", err)
	}

	return post, true, nil
}

// ListAll implements Repository.ListAll using SQLite.
func (r *SQLitePostRepository) ListAll(ctx context.Context) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+postColumns+" FROM posts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}

		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}
