package post

import (
	"context"

	"github.com/mkrupp/instalite/internal/domain"
)

// Repository defines the interface for post data persistence.
type Repository interface {
	// Insert stores a new post and returns it with its assigned id.
	Insert(ctx context.Context, post domain.Post) (*domain.Post, error)

	// FindByID retrieves a post by id.
	// Returns the post and true if found, or nil and false if not found.
	FindByID(ctx context.Context, id int64) (*domain.Post, bool, error)

	// DeleteByID removes a post and returns the removed record, or nil and false
	// if no such post exists.
	DeleteByID(ctx context.Context, id int64) (*domain.Post, bool, error)

	// ListAll returns every stored post in id order.
	ListAll(ctx context.Context) ([]domain.Post, error)
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
