package blob

import (
	"context"

	"github.com/mkrupp/instalite/internal/domain"
)

// Repository defines the interface for blob storage operations.
type Repository interface {
	// Exists checks if a blob with the given ID exists.
	Exists(ctx context.Context, id domain.BlobID) bool

	// Store persists a blob in the repository, replacing any blob with the same ID.
	// Readers never observe a partially written blob.
	Store(ctx context.Context, blob *domain.Blob) error

	// Fetch retrieves a blob by its ID.
	// Returns ErrBlobNotFound if no such blob exists.
	Fetch(ctx context.Context, id domain.BlobID) (*domain.Blob, error)

	// Delete removes a blob with the given ID.
	// Returns ErrBlobNotFound if no such blob exists.
	Delete(ctx context.Context, id domain.BlobID) error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Parameters:
// - name: subdirectory name for the repository
// Returns an error if initialization fails.
type RepositoryFactory func(
	ctx context.Context,
	name string,
) (Repository, error)
