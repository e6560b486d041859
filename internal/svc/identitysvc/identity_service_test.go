package identitysvc_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/instalite/internal/domain"
	"github.com/mkrupp/instalite/internal/infra/logging"
	"github.com/mkrupp/instalite/internal/repo/user"

	. "github.com/mkrupp/instalite/internal/svc/identitysvc"
)

var errRepo = errors.New("repository error")

// mockUserRepository implements user.Repository for testing.
type mockUserRepository struct {
	users   map[int64]domain.User
	nextID  int64
	inserts int
	err     error

	// hideLookups makes the find methods report nothing, like a concurrent
	// writer that has not committed yet.
	hideLookups bool

	m sync.Mutex
}

var _ user.Repository = (*mockUserRepository)(nil)

func newMockUserRepo() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]domain.User)}
}

func (m *mockUserRepository) find(match func(domain.User) bool) (*domain.User, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}

	if m.hideLookups {
		return nil, false, nil
	}

	for _, u := range m.users {
		if match(u) {
			return &u, true, nil
		}
	}

	return nil, false, nil
}

func (m *mockUserRepository) FindByID(_ context.Context, id int64) (*domain.User, bool, error) {
	return m.find(func(u domain.User) bool { return u.ID == id })
}

func (m *mockUserRepository) FindByUsername(_ context.Context, username string) (*domain.User, bool, error) {
	return m.find(func(u domain.User) bool { return u.Username == username })
}

func (m *mockUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, bool, error) {
	return m.find(func(u domain.User) bool { return u.Email == email })
}

// conflict mimics the storage unique indexes.
func (m *mockUserRepository) conflict(u domain.User) error {
	for _, other := range m.users {
		if other.ID == u.ID {
			continue
		}

		if other.Email == u.Email {
			return errors.Join(domain.ErrConstraintViolation, domain.ErrDuplicateEmail)
		}

		if other.Username == u.Username {
			return errors.Join(domain.ErrConstraintViolation, domain.ErrDuplicateUsername)
		}
	}

	return nil
}

func (m *mockUserRepository) Insert(_ context.Context, u domain.User) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	if err := m.conflict(u); err != nil {
		return nil, err
	}

	m.nextID++
	m.inserts++

	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	m.users[u.ID] = u

	return &u, nil
}

func (m *mockUserRepository) Update(_ context.Context, u domain.User) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	if _, ok := m.users[u.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}

	if err := m.conflict(u); err != nil {
		return nil, err
	}

	m.users[u.ID] = u

	return &u, nil
}

func (m *mockUserRepository) DeleteByID(_ context.Context, id int64) (*domain.User, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}

	u, ok := m.users[id]
	if !ok {
		return nil, false, nil
	}

	delete(m.users, id)

	return &u, true, nil
}

func (m *mockUserRepository) ListAll(_ context.Context) ([]domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	users := make([]domain.User, 0, len(m.users))
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			users = append(users, u)
		}
	}

	return users, nil
}

func (m *mockUserRepository) setErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()

	m.err = err
}

func setupTestService(t *testing.T) (*IdentityService, *mockUserRepository) {
	t.Helper()

	repo := newMockUserRepo()

	svc, err := NewIdentityService(func() (user.Repository, error) { return repo, nil }, newTestHasher(t))
	require.NoError(t, err)

	return svc, repo
}

func register(t *testing.T, svc *IdentityService, username, email, password string) *domain.User {
	t.Helper()

	created, err := svc.Register(context.Background(), domain.RegisterRequest{
		Username:     username,
		Email:        email,
		PasswordHash: password,
	})
	require.NoError(t, err)

	return created
}

func TestNewIdentityServiceRepoError(t *testing.T) {
	t.Parallel()

	_, err := NewIdentityService(func() (user.Repository, error) { return nil, errRepo }, newTestHasher(t))
	require.ErrorIs(t, err, errRepo)
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo := setupTestService(t)

	alice := register(t, svc, "alice", "alice@example.com", "Secret1!")
	assert.Positive(t, alice.ID)
	assert.Equal(t, "alice", alice.Username)
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.Empty(t, alice.PasswordHash)

	stored := repo.users[alice.ID]
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "Secret1!")

	_, err := svc.Register(ctx, domain.RegisterRequest{
		Username: "alice", Email: "other@example.com", PasswordHash: "x",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)

	loggedIn, err := svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "Secret1!"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, loggedIn.ID)
	assert.Empty(t, loggedIn.PasswordHash)

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	assert.Equal(t, 1, repo.inserts)
}

//nolint:paralleltest
func TestRegisterLogsUserGroupOnce(t *testing.T) {
	var buf bytes.Buffer

	logging.Configure(context.Background(), logging.LoggerConfig{
		Level: "debug", JSON: true, OutputHandle: &buf,
	}, "test")
	t.Cleanup(func() {
		logging.Configure(context.Background(), logging.LoggerConfig{Output: "discard"}, "test")
	})

	svc, _ := setupTestService(t)
	register(t, svc, "alice", "alice@example.com", "Secret1!")

	var found bool

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, strings.Count(line, `"user":{`), 1, line)

		if strings.Contains(line, `"msg":"user registered"`) {
			found = true

			assert.Contains(t, line, `"user":{"username":"alice","email":"alice@example.com"}`)
			assert.Contains(t, line, `"user_id":1`)
		}
	}

	assert.True(t, found, buf.String())
}

func TestRegisterEmailCheckedFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo := setupTestService(t)

	register(t, svc, "alice", "alice@example.com", "Secret1!")

	_, err := svc.Register(ctx, domain.RegisterRequest{
		Username: "alice", Email: "alice@example.com", PasswordHash: "Secret2!",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	require.NotErrorIs(t, err, domain.ErrDuplicateUsername)

	_, err = svc.Register(ctx, domain.RegisterRequest{
		Username: "bob", Email: "alice@example.com", PasswordHash: "Secret2!",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)

	// uniqueness is case-sensitive
	register(t, svc, "Alice", "Alice@example.com", "Secret2!")

	assert.Equal(t, 2, repo.inserts)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		req   domain.RegisterRequest
		field string
	}{
		{
			name:  "missing username",
			req:   domain.RegisterRequest{Email: "a@example.com", PasswordHash: "x"},
			field: "username",
		},
		{
			name:  "blank username",
			req:   domain.RegisterRequest{Username: "   ", Email: "a@example.com", PasswordHash: "x"},
			field: "username",
		},
		{
			name:  "missing email",
			req:   domain.RegisterRequest{Username: "a", PasswordHash: "x"},
			field: "email",
		},
		{
			name:  "malformed email",
			req:   domain.RegisterRequest{Username: "a", Email: "not-an-email", PasswordHash: "x"},
			field: "email",
		},
		{
			name:  "missing password",
			req:   domain.RegisterRequest{Username: "a", Email: "a@example.com"},
			field: "passwordHash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, repo := setupTestService(t)

			_, err := svc.Register(context.Background(), tt.req)
			require.ErrorIs(t, err, domain.ErrValidation)

			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
			assert.Zero(t, repo.inserts)
		})
	}
}

func TestRegisterStorageBackstop(t *testing.T) {
	t.Parallel()

	svc, repo := setupTestService(t)

	register(t, svc, "alice", "alice@example.com", "Secret1!")

	repo.hideLookups = true

	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Username: "alice", Email: "alice2@example.com", PasswordHash: "Secret1!",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)
	require.NotErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, 1, repo.inserts)
}

func TestLoginUnknownUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := setupTestService(t)

	_, err := svc.Login(ctx, domain.LoginRequest{Username: "nobody", Password: "Secret1!"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginLongPassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := setupTestService(t)

	password := strings.Repeat("p", 72)
	register(t, svc, "alice", "alice@example.com", password)

	_, err := svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: password})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: password + "suffix"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginInvalidStoredHash(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo := setupTestService(t)

	alice := register(t, svc, "alice", "alice@example.com", "Secret1!")

	stored := repo.users[alice.ID]
	stored.PasswordHash = "garbage"
	repo.users[alice.ID] = stored

	_, err := svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "Secret1!"})
	require.ErrorIs(t, err, domain.ErrInvalidHashFormat)
	require.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo := setupTestService(t)

	alice := register(t, svc, "alice", "alice@example.com", "Secret1!")
	bob := register(t, svc, "bob", "bob@example.com", "Secret2!")

	// own values are no conflict
	updated, err := svc.UpdateProfile(ctx, alice.ID, domain.UpdateUserRequest{
		Username: "alice", Email: "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.Username)

	updated, err = svc.UpdateProfile(ctx, alice.ID, domain.UpdateUserRequest{
		Username: "alicia", Email: "alicia@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "alicia@example.com", updated.Email)
	assert.Empty(t, updated.PasswordHash)

	// the password is untouched
	_, err = svc.Login(ctx, domain.LoginRequest{Username: "alicia", Password: "Secret1!"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, alice.ID, domain.UpdateUserRequest{
		Username: "alicia", Email: "bob@example.com",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)

	_, err = svc.UpdateProfile(ctx, alice.ID, domain.UpdateUserRequest{
		Username: "bob", Email: "alicia@example.com",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)

	assert.Equal(t, "alicia@example.com", repo.users[alice.ID].Email)
	assert.Equal(t, "bob", repo.users[bob.ID].Username)

	_, err = svc.UpdateProfile(ctx, 99, domain.UpdateUserRequest{
		Username: "carol", Email: "carol@example.com",
	})
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.UpdateProfile(ctx, alice.ID, domain.UpdateUserRequest{Username: "alicia"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetListDeleteUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := setupTestService(t)

	alice := register(t, svc, "alice", "alice@example.com", "Secret1!")
	register(t, svc, "bob", "bob@example.com", "Secret2!")

	found, ok, err := svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", found.Username)
	assert.Empty(t, found.PasswordHash)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)

	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}

	deleted, ok, err := svc.DeleteUser(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, alice.ID, deleted.ID)

	_, ok, err = svc.DeleteUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorageErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, repo := setupTestService(t)

	alice := register(t, svc, "alice", "alice@example.com", "Secret1!")

	repo.setErr(errRepo)

	_, err := svc.Register(ctx, domain.RegisterRequest{
		Username: "bob", Email: "bob@example.com", PasswordHash: "Secret2!",
	})
	require.ErrorIs(t, err, domain.ErrStorage)
	require.ErrorIs(t, err, errRepo)

	_, err = svc.Login(ctx, domain.LoginRequest{Username: "alice", Password: "Secret1!"})
	require.ErrorIs(t, err, domain.ErrStorage)

	_, err = svc.UpdateProfile(ctx, alice.ID, domain.UpdateUserRequest{Username: "a", Email: "a@example.com"})
	require.ErrorIs(t, err, domain.ErrStorage)

	_, _, err = svc.GetUser(ctx, alice.ID)
	require.ErrorIs(t, err, domain.ErrStorage)

	_, err = svc.ListUsers(ctx)
	require.ErrorIs(t, err, domain.ErrStorage)

	_, _, err = svc.DeleteUser(ctx, alice.ID)
	require.ErrorIs(t, err, domain.ErrStorage)
}
