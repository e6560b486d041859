package user

import (
	"context"

	"github.com/mkrupp/instalite/internal/domain"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// FindByID retrieves a user by id.
	// Returns the user and true if found, or nil and false if not found.
	FindByID(ctx context.Context, id int64) (*domain.User, bool, error)

	// FindByUsername retrieves a user by exact username.
	FindByUsername(ctx context.Context, username string) (*domain.User, bool, error)

	// FindByEmail retrieves a user by exact email address.
	FindByEmail(ctx context.Context, email string) (*domain.User, bool, error)

	// Insert stores a new user and returns it with its assigned id.
	// Returns ErrConstraintViolation joined with ErrDuplicateEmail or
	// ErrDuplicateUsername if a unique column is already taken.
	Insert(ctx context.Context, user domain.User) (*domain.User, error)

	// Update replaces the stored user with the same id.
	// Returns ErrUserNotFound if no such user exists.
	Update(ctx context.Context, user domain.User) (*domain.User, error)

	// DeleteByID removes a user and returns the removed record, or nil and false
	// if no such user exists.
	DeleteByID(ctx context.Context, id int64) (*domain.User, bool, error)

	// ListAll returns every stored user in id order.
	ListAll(ctx context.Context) ([]domain.User, error)
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
