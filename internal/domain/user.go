package domain

import (
	"fmt"
	"time"
)

var (
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)
	// ErrDuplicateEmail is returned when the email address belongs to another user.
	ErrDuplicateEmail = fmt.Errorf("%w: email address is already registered", ErrConflict)
	// ErrDuplicateUsername is returned when the username belongs to another user.
	ErrDuplicateUsername = fmt.Errorf("%w: username is already registered", ErrConflict)
)

// User represents a registered account.
type User struct {
	ID           int64     // Unique identifier, assigned on insert
	Username     string    // Unique login name
	Email        string    // Unique email address
	PasswordHash string    // Opaque password hash, never the plaintext
	CreatedAt    time.Time // Time of registration
}

// Public returns a copy of the user without the password hash.
func (u User) Public() User {
	u.PasswordHash = ""

	return u
}

// Response converts the user into its public JSON shape.
func (u User) Response() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewUserResponses converts a list of users into their public JSON shape.
func NewUserResponses(users []User) []UserResponse {
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, u.Response())
	}

	return resp
}

// RegisterRequest is the body of a registration request.
// The plaintext password travels in the passwordHash field.
type RegisterRequest struct {
	Username     string `json:"username"     validate:"required,notblank"`
	Email        string `json:"email"        validate:"required,email"`
	PasswordHash string `json:"passwordHash" validate:"required"`
}

// LoginRequest is the body of a login request. It is not validated: missing
// credentials fail like wrong ones.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateUserRequest is the body of a profile update request.
type UpdateUserRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Email    string `json:"email"    validate:"required,email"`
}
