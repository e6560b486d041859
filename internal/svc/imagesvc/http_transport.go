package imagesvc

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mkrupp/instalite/internal/domain"
	"github.com/mkrupp/instalite/internal/infra/logging"
	http_ "github.com/mkrupp/instalite/internal/infra/transport/http"
)

// RoutePrefix is the path stored images are served under.
const RoutePrefix = "/media"

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	// URLWidthParam is the URL parameter for specifying image resize width.
	// Default is "width".
	URLWidthParam string `env:"URL_WIDTH_PARAM" default:"width"`

	// CacheMaxAge is the max-age in seconds sent with served images.
	CacheMaxAge int `env:"CACHE_MAX_AGE" default:"86400"`
}

// HTTPTransport serves stored images.
type HTTPTransport struct {
	imageSvc ImageService
	log      logging.Logger
	cfg      HTTPTransportConfig
	mux      *http.ServeMux
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// It sets up the route:
// - GET /media/{name}: Download image, optionally resized with ?width=N.
func NewHTTPTransport(imageSvc ImageService, cfg HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		imageSvc: imageSvc,
		log:      logging.GetLogger("svc.imagesvc.http_transport"),
		cfg:      cfg,
		mux:      http.NewServeMux(),
	}

	ht.mux.HandleFunc("GET "+RoutePrefix+"/{name}", ht.HandleDownload)

	return ht
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

// HandleDownload processes image download requests.
// Expects the image name as a path value and an optional width parameter for resizing.
func (ht *HTTPTransport) HandleDownload(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleDownload(w, r)
}

func (ht *HTTPTransport) handleDownload(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "image download failed", "error", err)
		} else {
			log.DebugContext(ctx, "image downloaded")
		}
	}(r.Context())

	name := r.PathValue("name")
	log = log.With(logging.Group("image", "name", name))

	var width int

	if widthStr := r.URL.Query().Get(ht.cfg.URLWidthParam); widthStr != "" {
		width_, err := strconv.Atoi(widthStr)
		if err != nil || width_ < 0 {
			err := domain.NewValidationError(ht.cfg.URLWidthParam, "must be a non-negative integer")
			http_.WriteDomainError(w, err)

			return err
		}

		width = width_
	}

	img, err := ht.imageSvc.Fetch(r.Context(), name, width)
	if err != nil {
		http_.WriteDomainError(w, err)

		return fmt.Errorf("fetch: %w", err)
	}

	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Length", strconv.FormatInt(img.Size(), 10))
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(ht.cfg.CacheMaxAge))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(img.Data); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}
