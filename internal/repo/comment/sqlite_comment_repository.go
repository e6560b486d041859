package comment

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

const commentColumns = "id, image_comment, created_at, post_id, user_id, username"

// SQLiteCommentRepository implements Repository using SQLite as the storage backend.
type SQLiteCommentRepository struct {
	db  *database.SQLite
	log logging.Logger
}

var _ Repository = (*SQLiteCommentRepository)(nil)

// SQLiteCommentRepositoryFactory creates a factory function that returns a new SQLiteCommentRepository.
func SQLiteCommentRepositoryFactory(db *database.SQLite) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteCommentRepository(db), nil
	}
}

// NewSQLiteCommentRepository creates a new SQLiteCommentRepository on a migrated database.
func NewSQLiteCommentRepository(db *database.SQLite) *SQLiteCommentRepository {
	return &SQLiteCommentRepository{
		db:  db,
		log: logging.GetLogger("repo.comment.sqlite_comment_repository"),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	var (
		comment   domain.Comment
		createdAt int64
	)

	err := row.Scan(
		&comment.ID,
		&comment.ImageComment,
		&createdAt,
		&comment.PostID,
		&comment.UserID,
		&comment.Username,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	comment.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &comment, nil
}

// Insert implements Repository.Insert using SQLite.
func (r *SQLiteCommentRepository) Insert(ctx context.Context, comment domain.Comment) (_ *domain.Comment, err error) {
	log := r.log.With(logging.Group("comment", "post_id", comment.PostID, "user_id", comment.UserID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "insert comment failed", "error", err)
		} else {
			log.DebugContext(ctx, "comment inserted", "id", comment.ID)
		}
	}()

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	err = r.db.WithWriteLock(func() error {
		res, err := r.db.ExecContext(ctx,
			"INSERT INTO comments (image_comment, created_at, post_id, user_id, username) VALUES (?, ?, ?, ?, ?)",
			comment.ImageComment,
			comment.CreatedAt.Unix(),
			comment.PostID,
			comment.UserID,
			comment.Username,
		)
		if err != nil {
			return err //nolint:wrapcheck
		}

		comment.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	return &comment, nil
}

// FindByID implements Repository.FindByID using SQLite.
func (r *SQLiteCommentRepository) FindByID(ctx context.Context, id int64) (*domain.Comment, bool, error) {
	comment, err := scanComment(r.db.QueryRowContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE id = ?", id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query comment: %w", err)
	}

	return comment, true, nil
}

// DeleteByID implements Repository.DeleteByID using SQLite.
func (r *SQLiteCommentRepository) DeleteByID(ctx context.Context, id int64) (comment *domain.Comment, ok bool, err error) {
	log := r.log.With(logging.Group("comment", "id", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "delete comment failed", "error", err)
		} else {
			log.DebugContext(ctx, "comment deleted", "found", ok)
		}
	}()

	err = r.db.WithWriteLock(func() error {
		var err error

		comment, err = scanComment(r.db.QueryRowContext(ctx,
			"DELETE FROM comments WHERE id = ? RETURNING "+commentColumns, id,
		))

		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("delete comment: %w", err)
	}

	return comment, true, nil
}

// ListAll implements Repository.ListAll using SQLite.
func (r *SQLiteCommentRepository) ListAll(ctx context.Context) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+commentColumns+" FROM comments ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}

		comments = append(comments, *comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}
