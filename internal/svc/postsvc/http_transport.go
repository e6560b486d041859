package postsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/mkrupp/instalite/internal/domain"
	"github.com/mkrupp/instalite/internal/infra/logging"
	http_ "github.com/mkrupp/instalite/internal/infra/transport/http"
	"github.com/mkrupp/instalite/internal/svc/imagesvc"
)

// RoutePrefix is the path all post routes live under.
const RoutePrefix = "/api/Post"

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	// MultipartFileNames are the form field names checked for an image upload, in order.
	MultipartFileNames []string `env:"MULTIPART_FILE_NAMES" default:"imageFile,image"`

	// MultipartFormMaxMemory is the part of a multipart form kept in memory,
	// the rest is buffered in temporary files.
	MultipartFormMaxMemory int64 `env:"MULTIPART_FORM_MAX_MEMORY" default:"10485760"`

	// MaxRequestSize is the maximum accepted request body size in bytes
	MaxRequestSize int64 `env:"MAX_REQUEST_SIZE" default:"11534336"`
}

// HTTPTransport handles HTTP requests for the post service.
type HTTPTransport struct {
	postSvc  *PostService
	imageSvc imagesvc.ImageService
	log      logging.Logger
	cfg      HTTPTransportConfig
	mux      *http.ServeMux
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// It sets up routes for the post endpoints:
// - GET /api/Post: List posts
// - GET /api/Post/{id}: Get post by id
// - POST /api/Post: Create post from a multipart form
// - DELETE /api/Post/{id}: Delete post and its image.
func NewHTTPTransport(postSvc *PostService, imageSvc imagesvc.ImageService, cfg HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		postSvc:  postSvc,
		imageSvc: imageSvc,
		log:      logging.GetLogger("svc.postsvc.http_transport"),
		cfg:      cfg,
		mux:      http.NewServeMux(),
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

func (ht *HTTPTransport) requestLogger(r *http.Request) logging.Logger {
	return ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
}

// HandleList returns all posts.
func (ht *HTTPTransport) HandleList(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleList(w, r)
}

func (ht *HTTPTransport) handleList(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "post list failed", "error", err)
		}
	}(r.Context())

	posts, err := ht.postSvc.ListPosts(r.Context())
	if err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("list posts: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, domain.NewPostResponses(posts))
}

// HandleGet returns the post with the id given in the path.
func (ht *HTTPTransport) HandleGet(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGet(w, r)
}

func (ht *HTTPTransport) handleGet(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "post get failed", "error", err)
		}
	}(r.Context())

	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.WriteDomainError(w, err)

		return err //nolint:wrapcheck
	}

	found, ok, err := ht.postSvc.GetPost(r.Context(), id)
	if err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("get post: %w", err)
	} else if !ok {
		http_.WriteDomainError(w, domain.ErrPostNotFound)

		return nil
	}

	return http_.WriteJSON(w, http.StatusOK, found.Response())
}

// HandleCreate processes post creation requests.
// Expects a form with title, description, an optional userId and an optional image file.
func (ht *HTTPTransport) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCreate(w, r)
}

func (ht *HTTPTransport) handleCreate(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "post create failed", "error", err)
		} else {
			log.DebugContext(ctx, "post created")
		}
	}(r.Context())

	req, err := ht.parseForm(w, r)
	if err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("parse form: %w", err)
	}

	log = log.With(logging.Group("post", "title", req.Title, "filename", req.ImageFilename))

	created, err := ht.postSvc.CreatePost(r.Context(), req)
	if err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("create post: %w", err)
	}

	w.Header().Set("Location", RoutePrefix+"/"+strconv.FormatInt(created.ID, 10))

	return http_.WriteJSON(w, http.StatusCreated, created.Response())
}

func (ht *HTTPTransport) parseForm(w http.ResponseWriter, r *http.Request) (domain.NewPost, error) {
	r.Body = http.MaxBytesReader(w, r.Body, ht.cfg.MaxRequestSize)

	if err := r.ParseMultipartForm(ht.cfg.MultipartFormMaxMemory); err != nil &&
		!errors.Is(err, http.ErrNotMultipart) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return domain.NewPost{}, fmt.Errorf("%w: %w", domain.ErrImageTooLarge, err)
		}

		return domain.NewPost{}, fmt.Errorf("%w: %w", http_.ErrInvalidBody, err)
	}

	req := domain.NewPost{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	if userID := r.FormValue("userId"); userID != "" {
		id, err := strconv.ParseInt(userID, 10, 64)
		if err != nil {
			return domain.NewPost{}, domain.NewValidationError("userId", "must be an integer")
		}

		req.UserID = id
	}

	fileHeader := ht.imageFile(r)
	if fileHeader == nil || fileHeader.Size == 0 {
		return req, nil
	}

	// Check upload constraints before reading the image to buffer
	if _, err := ht.imageSvc.CheckUploadConstraints(fileHeader.Filename, fileHeader.Size, nil); err != nil {
		return domain.NewPost{}, fmt.Errorf("upload not allowed: %s: %w", fileHeader.Filename, err)
	}

	data, err := readFile(fileHeader)
	if err != nil {
		return domain.NewPost{}, err
	}

	req.ImageFilename = fileHeader.Filename
	req.ImageData = data

	return req, nil
}

func (ht *HTTPTransport) imageFile(r *http.Request) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}

	for _, name := range ht.cfg.MultipartFileNames {
		if files := r.MultipartForm.File[name]; len(files) > 0 {
			return files[0]
		}
	}

	return nil
}

func readFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fileHeader.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileHeader.Filename, err)
	}

	return data, nil
}

// HandleDelete removes the post with the id given in the path and returns it.
func (ht *HTTPTransport) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleDelete(w, r)
}

func (ht *HTTPTransport) handleDelete(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "post delete failed", "error", err)
		} else {
			log.DebugContext(ctx, "post delete handled")
		}
	}(r.Context())

	id, err := http_.PathID(r, "id")
	if err != nil {
		http_.WriteDomainError(w, err)

		return err //nolint:wrapcheck
	}

	deleted, ok, err := ht.postSvc.DeletePost(r.Context(), id)
	if err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("delete post: %w", err)
	} else if !ok {
		http_.WriteDomainError(w, domain.ErrPostNotFound)

		return nil
	}

	return http_.WriteJSON(w, http.StatusOK, deleted.Response())
}
