package user

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

const userColumns = "id, username, email, password_hash, created_at"

// SQLiteUserRepository implements Repository using SQLite as the storage backend.
type SQLiteUserRepository struct {
	db  *database.SQLite
	log logging.Logger
}

var _ Repository = (*SQLiteUserRepository)(nil)

// SQLiteUserRepositoryFactory creates a factory function that returns a new SQLiteUserRepository.
// The factory function implements the RepositoryFactory type.
func SQLiteUserRepositoryFactory(db *database.SQLite) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteUserRepository(db), nil
	}
}

// NewSQLiteUserRepository creates a new SQLiteUserRepository on a migrated database.
func NewSQLiteUserRepository(db *database.SQLite) *SQLiteUserRepository {
	return &SQLiteUserRepository{
		db:  db,
		log: logging.GetLogger("repo.user.sqlite_user_repository"),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user      domain.User
		createdAt int64
	)

	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		return nil, err //nolint:wrapcheck
	}

	user.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &user, nil
}

func (r *SQLiteUserRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, bool, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" = ?", arg,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query user: %w", err)
	}

	return user, true, nil
}

// FindByID implements Repository.FindByID using SQLite.
func (r *SQLiteUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	return r.findOne(ctx, "id", id)
}

// FindByUsername implements Repository.FindByUsername using SQLite.
func (r *SQLiteUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return r.findOne(ctx, "username", username)
}

// FindByEmail implements Repository.FindByEmail using SQLite.
func (r *SQLiteUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	return r.findOne(ctx, "email", email)
}

// Insert implements Repository.Insert using SQLite.
func (r *SQLiteUserRepository) Insert(ctx context.Context, user domain.User) (_ *domain.User, err error) {
	log := r.log.With(logging.Group("user", "username", user.Username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "insert user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user inserted", "id", user.ID)
		}
	}()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	err = r.db.WithWriteLock(func() error {
		res, err := r.db.ExecContext(ctx,
			"INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
			user.Username,
			user.Email,
			user.PasswordHash,
			user.CreatedAt.Unix(),
		)
		if err != nil {
			return mapConstraintError(err)
		}

		user.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &user, nil
}

// Update implements Repository.Update using SQLite.
func (r *SQLiteUserRepository) Update(ctx context.Context, user domain.User) (_ *domain.User, err error) {
	log := r.log.With(logging.Group("user", "id", user.ID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "update user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user updated")
		}
	}()

	err = r.db.WithWriteLock(func() error {
		res, err := r.db.ExecContext(ctx,
			"UPDATE users SET username = ?, email = ?, password_hash = ? WHERE id = ?",
			user.Username,
			user.Email,
			user.PasswordHash,
			user.ID,
		)
		if err != nil {
			return mapConstraintError(err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}

		if n == 0 {
			return domain.ErrUserNotFound
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return &user, nil
}

// DeleteByID implements Repository.DeleteByID using SQLite.
func (r *SQLiteUserRepository) DeleteByID(ctx context.Context, id int64) (user *domain.User, ok bool, err error) {
	log := r.log.With(logging.Group("user", "id", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "delete user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user deleted", "found", ok)
		}
	}()

	err = r.db.WithWriteLock(func() error {
		var err error

		user, err = scanUser(r.db.QueryRowContext(ctx,
			"DELETE FROM users WHERE id = ? RETURNING "+userColumns, id,
		))

		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("delete user: %w", err)
	}

	return user, true, nil
}

// ListAll implements Repository.ListAll using SQLite.
func (r *SQLiteUserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// mapConstraintError joins unique violations with the duplicate error of the offending column.
func mapConstraintError(err error) error {
	column, ok := database.UniqueViolation(err)
	if !ok {
		return err
	}

	switch column {
	case "users.email":
		return errors.Join(domain.ErrConstraintViolation, domain.ErrDuplicateEmail, err)
	case "users.username":
		return errors.Join(domain.ErrConstraintViolation, domain.ErrDuplicateUsername, err)
	default:
		return errors.Join(domain.ErrConstraintViolation, err)
	}
}
