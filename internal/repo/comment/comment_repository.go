package comment

import (
	"context"

	"github.com/mkrupp/instalite/internal/domain"
)

// Repository defines the interface for comment data persistence.
type Repository interface {
	// Insert stores a new comment and returns it with its assigned id.
	Insert(ctx context.Context, comment domain.Comment) (*domain.Comment, error)

	// FindByID retrieves a comment by id.
	// Returns the comment and true if found, or nil and false if not found.
	FindByID(ctx context.Context, id int64) (*domain.Comment, bool, error)

	// DeleteByID removes a comment and returns the removed record, or nil and false
	// if no such comment exists.
	DeleteByID(ctx context.Context, id int64) (*domain.Comment, bool, error)

	// ListAll returns every stored comment in id order.
	ListAll(ctx context.Context) ([]domain.Comment, error)
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
