package identitysvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/instalite/internal/domain"
	"github.com/mkrupp/instalite/internal/infra/logging"
	"github.com/mkrupp/instalite/internal/repo/user"
)

// IdentityService registers users, checks their credentials and keeps
// usernames and email addresses unique.
//
// The uniqueness checks run before the write and only produce the friendly
// duplicate error. Two concurrent registrations may both pass them; the
// storage unique indexes then reject the second insert with the same error.
type IdentityService struct {
	userRepo user.Repository
	hasher   Hasher
	log      logging.Logger
}

// NewIdentityService creates a new IdentityService with the given user repository factory and hasher.
// Returns an error if the user repository cannot be created.
func NewIdentityService(repoFactory user.RepositoryFactory, hasher Hasher) (*IdentityService, error) {
	userRepo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &IdentityService{
		userRepo: userRepo,
		hasher:   hasher,
		log:      logging.GetLogger("svc.identitysvc.identity_service"),
	}, nil
}

// storageError marks repository failures as ErrStorage unless they already
// carry a conflict or not-found kind.
func storageError(op string, err error) error {
	if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStorage, err))
}

// Register creates a new user account. The email address is checked before
// the username, so a request duplicating both fails with ErrDuplicateEmail.
// The returned user carries no password hash.
func (s *IdentityService) Register(ctx context.Context, req domain.RegisterRequest) (_ *domain.User, err error) {
	log := s.log.With(logging.Group("user", "username", req.Username, "email", req.Email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}()

	if err := domain.Validate(req); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	if _, found, err := s.userRepo.FindByEmail(ctx, req.Email); err != nil {
		return nil, storageError("find by email", err)
	} else if found {
		return nil, domain.ErrDuplicateEmail
	}

	if _, found, err := s.userRepo.FindByUsername(ctx, req.Username); err != nil {
		return nil, storageError("find by username", err)
	} else if found {
		return nil, domain.ErrDuplicateUsername
	}

	passwordHash, err := s.hasher.Hash(req.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.userRepo.Insert(ctx, domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, storageError("insert user", err)
	}

	log = log.With("user_id", created.ID)

	public := created.Public()

	return &public, nil
}

// Login checks the given credentials. An unknown username and a wrong
// password both fail with ErrInvalidCredentials. No session is created.
func (s *IdentityService) Login(ctx context.Context, req domain.LoginRequest) (_ *domain.User, err error) {
	log := s.log.With(logging.Group("user", "username", req.Username))

	defer func() {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			log.WarnContext(ctx, "login rejected")
		case err != nil:
			log.ErrorContext(ctx, "login failed", "error", err)
		default:
			log.DebugContext(ctx, "login successful")
		}
	}()

	found, ok, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, storageError("find by username", err)
	}

	if !ok {
		log.DebugContext(ctx, "no such user")

		return nil, domain.ErrInvalidCredentials
	}

	match, err := s.hasher.Verify(req.Password, found.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !match {
		log.DebugContext(ctx, "password mismatch")

		return nil, domain.ErrInvalidCredentials
	}

	public := found.Public()

	return &public, nil
}

// UpdateProfile changes the username and email of an existing user.
// Matching the user's own current values is not a conflict. The password is untouched.
func (s *IdentityService) UpdateProfile(
	ctx context.Context,
	id int64,
	req domain.UpdateUserRequest,
) (_ *domain.User, err error) {
	log := s.log.With(logging.Group("user", "id", id, "username", req.Username, "email", req.Email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "update user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user updated")
		}
	}()

	target, ok, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError("find by id", err)
	} else if !ok {
		return nil, domain.ErrUserNotFound
	}

	if err := domain.Validate(req); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	if other, found, err := s.userRepo.FindByEmail(ctx, req.Email); err != nil {
		return nil, storageError("find by email", err)
	} else if found && other.ID != id {
		return nil, domain.ErrDuplicateEmail
	}

	if other, found, err := s.userRepo.FindByUsername(ctx, req.Username); err != nil {
		return nil, storageError("find by username", err)
	} else if found && other.ID != id {
		return nil, domain.ErrDuplicateUsername
	}

	target.Username = req.Username
	target.Email = req.Email

	updated, err := s.userRepo.Update(ctx, *target)
	if err != nil {
		return nil, storageError("update user", err)
	}

	public := updated.Public()

	return &public, nil
}

// GetUser returns the user with the given id, or false if there is none.
func (s *IdentityService) GetUser(ctx context.Context, id int64) (*domain.User, bool, error) {
	found, ok, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, false, storageError("find by id", err)
	} else if !ok {
		return nil, false, nil
	}

	public := found.Public()

	return &public, true, nil
}

// ListUsers returns all users in registration order.
func (s *IdentityService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, storageError("list users", err)
	}

	for i := range users {
		users[i] = users[i].Public()
	}

	return users, nil
}

// DeleteUser removes the user with the given id and returns it, or false if there is none.
func (s *IdentityService) DeleteUser(ctx context.Context, id int64) (_ *domain.User, ok bool, err error) {
	log := s.log.With(logging.Group("user", "id", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "delete user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user deleted", "found", ok)
		}
	}()

	deleted, ok, err := s.userRepo.DeleteByID(ctx, id)
	if err != nil {
		return nil, false, storageError("delete user", err)
	} else if !ok {
		return nil, false, nil
	}

	public := deleted.Public()

	return &public, true, nil
}
