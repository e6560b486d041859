package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service wraps exactly one of them,
// which is what transports switch on.
var (
	// ErrValidation is returned for malformed input, e.g. a missing required field.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when a write would violate a uniqueness rule.
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned when the username/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStorage is returned when the underlying persistence layer fails.
	ErrStorage = errors.New("storage failure")
)

// ErrConstraintViolation is returned by repositories when the storage layer's own
// uniqueness constraints reject a write.
var ErrConstraintViolation = fmt.Errorf("%w: constraint violation", ErrConflict)

// ErrInvalidHashFormat is returned when a stored password hash cannot be parsed.
var ErrInvalidHashFormat = errors.New("invalid hash format")

// Message returns the user-facing message for err, or an empty string if err
// carries no known kind.
func Message(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message()
	}

	switch {
	case errors.Is(err, ErrDuplicateEmail):
		return "Email address is already registered."
	case errors.Is(err, ErrDuplicateUsername):
		return "Username is already registered."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, ErrImageTypeNotSupported):
		return "Invalid file format. Supported formats: jpg, jpeg, png."
	case errors.Is(err, ErrImageTypeMismatch):
		return "File content does not match its extension."
	case errors.Is(err, ErrImageTooLarge):
		return "Image is too large."
	case errors.Is(err, ErrUserNotFound):
		return "User not found."
	case errors.Is(err, ErrPostNotFound):
		return "Post not found."
	case errors.Is(err, ErrCommentNotFound):
		return "Comment not found."
	case errors.Is(err, ErrImageNotFound):
		return "Image not found."
	}

	return ""
}
