package domain

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidBlobID is returned when a blob ID would escape the repository directory.
	ErrInvalidBlobID = errors.New("invalid blob id")
	// ErrBlobNotFound is returned when fetching or deleting a non-existent blob.
	ErrBlobNotFound = fmt.Errorf("%w: blob", ErrNotFound)
)

// BlobID identifies a blob within a repository. For images it is the generated
// file name, extension included.
type BlobID string

// String returns the string representation of the BlobID.
func (id BlobID) String() string {
	return string(id)
}

// Blob is an opaque binary object with an identifier.
type Blob struct {
	ID   BlobID
	Body []byte
}

// NewBlob creates a new Blob with the given ID and content.
func NewBlob(id BlobID, body []byte) *Blob {
	return &Blob{ID: id, Body: body}
}

// Size returns the size of the blob's content in bytes.
func (blob *Blob) Size() int64 {
	return int64(len(blob.Body))
}

// WriteTo writes the blob's content to the given writer.
func (blob *Blob) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(blob.Body)
	if err != nil {
		return int64(n), fmt.Errorf("write: %w", err)
	}

	return int64(n), nil
}

// ReadFrom replaces the blob's content with everything read from r.
func (blob *Blob) ReadFrom(r io.Reader) (int64, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read all: %w", err)
	}

	blob.Body = body

	return int64(len(body)), nil
}
