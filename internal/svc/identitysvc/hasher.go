package identitysvc

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/instalite/internal/domain"
)

// maxPasswordLength is the number of bytes bcrypt takes into account.
const maxPasswordLength = 72

// ErrInvalidCost is returned when the configured bcrypt cost is out of range.
var ErrInvalidCost = errors.New("invalid bcrypt cost")

// Hasher turns plaintext passwords into salted one-way hashes and checks them.
type Hasher interface {
	// Hash returns a salted hash of plaintext. Two calls with the same input
	// return different hashes.
	Hash(plaintext string) (string, error)

	// Verify reports whether hash was produced from plaintext.
	// Returns ErrInvalidHashFormat if hash is not a hash produced by Hash.
	Verify(plaintext, hash string) (bool, error)
}

// HasherConfig holds configuration for the password hasher.
type HasherConfig struct {
	// BcryptCost is the bcrypt work factor, between 4 and 31
	BcryptCost int `env:"BCRYPT_COST" default:"10"`
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	cost int
}

var _ Hasher = (*BcryptHasher)(nil)

// NewBcryptHasher creates a BcryptHasher with the configured cost.
func NewBcryptHasher(cfg HasherConfig) (*BcryptHasher, error) {
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cfg.BcryptCost)
	}

	return &BcryptHasher{cost: cfg.BcryptCost}, nil
}

// Hash implements Hasher.Hash. Plaintexts longer than 72 bytes are rejected
// with a validation error.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordLength {
		return "", domain.NewValidationError("passwordHash", "must be at most 72 bytes long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("generate from password: %w", err)
	}

	return string(hash), nil
}

// Verify implements Hasher.Verify. Plaintexts longer than 72 bytes never
// match, since Hash cannot have produced a hash for them.
func (h *BcryptHasher) Verify(plaintext, hash string) (bool, error) {
	if len(plaintext) > maxPasswordLength {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return false, fmt.Errorf("%w: %w", domain.ErrInvalidHashFormat, err)
		}

		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", domain.ErrInvalidHashFormat, err)
	}
}
