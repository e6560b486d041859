package commentsvc

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mkrupp/instalite/internal/domain"
	"github.com/mkrupp/instalite/internal/infra/logging"
	http_ "github.com/mkrupp/instalite/internal/infra/transport/http"
)

// RoutePrefix is the path all comment routes live under.
const RoutePrefix = "/api/Comment"

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	// MaxBodySize is the maximum accepted JSON request body size in bytes
	MaxBodySize int64 `env:"MAX_BODY_SIZE" default:"1048576"`
}

// HTTPTransport handles HTTP requests for the comment service.
type HTTPTransport struct {
	commentSvc *CommentService
	log        logging.Logger
	cfg        HTTPTransportConfig
	mux        *http.ServeMux
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// It sets up routes for the comment endpoints:
// - GET /api/Comment: List comments
// - GET /api/Comment/{id}: Get comment by id
// - POST /api/Comment: Create comment
// - DELETE /api/Comment/{id}: Delete comment.
func NewHTTPTransport(commentSvc *CommentService, cfg HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		commentSvc: commentSvc,
		log:        logging.GetLogger("svc.commentsvc.http_transport"),
		cfg:        cfg,
		mux:        http.NewServeMux(),
	}

	ht.mux.HandleFunc("GET "+RoutePrefix, ht.HandleList)
	ht.mux.HandleFunc("GET "+RoutePrefix+"/{id}", ht.HandleGet)
	ht.mux.HandleFunc("POST "+RoutePrefix, ht.HandleCreate)
	ht.mux.HandleFunc("DELETE "+RoutePrefix+"/{id}", ht.HandleDelete)

	return ht
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

// HandleList returns all comments.
func (ht *HTTPTransport) HandleList(w http.ResponseWriter, r *http.Request) {
	comments, err := ht.commentSvc.ListComments(r.Context())
	if err != nil {
		ht.log.ErrorContext(r.Context(), "comment list failed", "error", err)
		http_.WriteDomainError(w, err)

		return
	}

	_ = http_.WriteJSON(w, http.StatusOK, domain.NewCommentResponses(comments))
}

// HandleGet returns the comment with the id given in the path.
func (ht *HTTPTransport) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.WriteDomainError(w, err)

		return
	}

	found, ok, err := ht.commentSvc.GetComment(r.Context(), id)
	if err != nil {
		ht.log.ErrorContext(r.Context(), "comment get failed", "id", id, "error", err)
		http_.WriteDomainError(w, err)

		return
	} else if !ok {
		http_.WriteDomainError(w, domain.ErrCommentNotFound)

		return
	}

	_ = http_.WriteJSON(w, http.StatusOK, found.Response())
}

// HandleCreate processes comment creation requests.
// Expects a JSON body {imageComment, postId, userId, username}.
func (ht *HTTPTransport) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCreate(w, r)
}

func (ht *HTTPTransport) handleCreate(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "comment create failed", "error", err)
		} else {
			log.DebugContext(ctx, "comment created")
		}
	}(r.Context())

	var req domain.CreateCommentRequest
	if err := http_.DecodeJSON(w, r, ht.cfg.MaxBodySize, &req); err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("decode request: %w", err)
	}

	created, err := ht.commentSvc.CreateComment(r.Context(), req)
	if err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("create comment: %w", err)
	}

	w.Header().Set("Location", RoutePrefix+"/"+strconv.FormatInt(created.ID, 10))

	return http_.WriteJSON(w, http.StatusCreated, created.Response())
}

// HandleDelete removes the comment with the id given in the path and returns it.
func (ht *HTTPTransport) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.WriteDomainError(w, err)

		return
	}

	deleted, ok, err := ht.commentSvc.DeleteComment(r.Context(), id)
	if err != nil {
		http_.WriteDomainError(w, err)

		return
	} else if !ok {
		http_.WriteDomainError(w, domain.ErrCommentNotFound)

		return
	}

	_ = http_.WriteJSON(w, http.StatusOK, deleted.Response())
}
