package identitysvc

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mkrupp/instalite/internal/domain"
	"github.com/mkrupp/instalite/internal/infra/logging"
	http_ "github.com/mkrupp/instalite/internal/infra/transport/http"
)

const (
	// RoutePrefix is the path all user routes live under.
	RoutePrefix = "/api/User"

	loginSuccessMessage = "Login successful."
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	// MaxBodySize is the maximum accepted JSON request body size in bytes
	MaxBodySize int64 `env:"MAX_BODY_SIZE" default:"1048576"`
}

// HTTPTransport handles HTTP requests for the identity service.
// It provides endpoints for registration, login and user management.
type HTTPTransport struct {
	identitySvc *IdentityService
	log         logging.Logger
	cfg         HTTPTransportConfig
	mux         *http.ServeMux
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// It sets up routes for the user endpoints:
// - POST /api/User: Register a new user
// - POST /api/User/login: Check credentials
// - GET /api/User: List users
// - GET /api/User/{id}: Get user by id
// - PUT /api/User/{id}: Update username and email
// - DELETE /api/User/{id}: Delete user.
func NewHTTPTransport(identitySvc *IdentityService, cfg HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		identitySvc: identitySvc,
		log:         logging.GetLogger("svc.identitysvc.http_transport"),
		cfg:         cfg,
		mux:         http.NewServeMux(),
	}

	ht.mux.HandleFunc("POST "+RoutePrefix, ht.HandleRegister)
	ht.mux.HandleFunc("POST "+RoutePrefix+"/{action}", ht.HandleLogin)
	ht.mux.HandleFunc("GET "+RoutePrefix, ht.HandleList)
	ht.mux.HandleFunc("GET "+RoutePrefix+"/{id}", ht.HandleGet)
	ht.mux.HandleFunc("PUT "+RoutePrefix+"/{id}", ht.HandleUpdate)
	ht.mux.HandleFunc("DELETE "+RoutePrefix+"/{id}", ht.HandleDelete)

	return ht
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

func (ht *HTTPTransport) requestLogger(r *http.Request) logging.Logger {
	return ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
}

// HandleRegister processes user registration requests.
// Expects a JSON body {username, email, passwordHash} where passwordHash carries the plaintext password.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user register failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}(r.Context())

	var req domain.RegisterRequest
	if err := http_.DecodeJSON(w, r, ht.cfg.MaxBodySize, &req); err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("decode request: %w", err)
	}

	created, err := ht.identitySvc.Register(r.Context(), req)
	if err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("register: %w", err)
	}

	w.Header().Set("Location", RoutePrefix+"/"+strconv.FormatInt(created.ID, 10))

	return http_.WriteJSON(w, http.StatusCreated, created.Response())
}

// HandleLogin processes login requests.
// Expects a JSON body {username, password}. The last path segment matches "login" in any case.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user login failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	if !strings.EqualFold(r.PathValue("action"), "login") {
		http.NotFound(w, r)

		return nil
	}

	var req domain.LoginRequest
	if err := http_.DecodeJSON(w, r, ht.cfg.MaxBodySize, &req); err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("decode request: %w", err)
	}

	log = log.With(logging.Group("user", "username", req.Username))

	if _, err := ht.identitySvc.Login(r.Context(), req); err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("login: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, domain.MessageResponse{Message: loginSuccessMessage})
}

// HandleList returns all users.
func (ht *HTTPTransport) HandleList(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleList(w, r)
}

func (ht *HTTPTransport) handleList(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user list failed", "error", err)
		}
	}(r.Context())

	users, err := ht.identitySvc.ListUsers(r.Context())
	if err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("list users: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, domain.NewUserResponses(users))
}

// HandleGet returns the user with the id given in the path.
func (ht *HTTPTransport) HandleGet(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGet(w, r)
}

func (ht *HTTPTransport) handleGet(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user get failed", "error", err)
		}
	}(r.Context())

	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.WriteDomainError(w, err)

		return err //nolint:wrapcheck
	}

	found, ok, err := ht.identitySvc.GetUser(r.Context(), id)
	if err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("get user: %w", err)
	} else if !ok {
		http_.WriteDomainError(w, domain.ErrUserNotFound)

		return nil
	}

	return http_.WriteJSON(w, http.StatusOK, found.Response())
}

// HandleUpdate changes username and email of the user with the id given in the path.
// Expects a JSON body {username, email}.
func (ht *HTTPTransport) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleUpdate(w, r)
}

func (ht *HTTPTransport) handleUpdate(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user update failed", "error", err)
		} else {
			log.DebugContext(ctx, "user updated")
		}
	}(r.Context())

	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.WriteDomainError(w, err)

		return err //nolint:wrapcheck
	}

	var req domain.UpdateUserRequest
	if err := http_.DecodeJSON(w, r, ht.cfg.MaxBodySize, &req); err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("decode request: %w", err)
	}

	updated, err := ht.identitySvc.UpdateProfile(r.Context(), id, req)
	if err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("update profile: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, updated.Response())
}

// HandleDelete removes the user with the id given in the path and returns it.
func (ht *HTTPTransport) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleDelete(w, r)
}

func (ht *HTTPTransport) handleDelete(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user delete failed", "error", err)
		} else {
			log.DebugContext(ctx, "user delete handled")
		}
	}(r.Context())

	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.WriteDomainError(w, err)

		return err //nolint:wrapcheck
	}

	deleted, ok, err := ht.identitySvc.DeleteUser(r.Context(), id)
	if err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("delete user: %w", err)
	} else if !ok {
		http_.WriteDomainError(w, domain.ErrUserNotFound)

		return nil
	}

	return http_.WriteJSON(w, http.StatusOK, deleted.Response())
}
