package imagesvc

import (
	"context"

	"github.com/mkrupp/instalite/internal/domain"
)

// ImageService defines the interface for managing uploaded images.
type ImageService interface {
	// Store checks the upload constraints and persists data under a newly
	// generated name that keeps the lowercased extension of filename.
	// Returns the generated name.
	Store(ctx context.Context, filename string, data []byte) (string, error)

	// Fetch retrieves the image with the given name. If width is positive and
	// smaller than the image, a copy scaled to width is returned.
	// Returns ErrImageNotFound if there is no such image.
	Fetch(ctx context.Context, name string, width int) (*domain.Image, error)

	// Delete removes the image with the given name.
	// Returns ErrImageNotFound if there is no such image.
	Delete(ctx context.Context, name string) error

	// MaxSize returns the maximum allowed file size in bytes.
	MaxSize() int64

	// CheckUploadConstraints checks size and extension of filename and, if data
	// is not nil, that the content matches the extension.
	// Returns the MIME type of the image.
	CheckUploadConstraints(filename string, size int64, data []byte) (string, error)
}
