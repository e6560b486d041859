package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/instalite/internal/infra/config"
	"github.com/mkrupp/instalite/internal/infra/database"
	"github.com/mkrupp/instalite/internal/infra/logging"
	"github.com/mkrupp/instalite/internal/infra/transport/http"
	"github.com/mkrupp/instalite/internal/repo/blob"
	"github.com/mkrupp/instalite/internal/repo/comment"
	"github.com/mkrupp/instalite/internal/repo/post"
	"github.com/mkrupp/instalite/internal/repo/user"
	"github.com/mkrupp/instalite/internal/svc/commentsvc"
	"github.com/mkrupp/instalite/internal/svc/identitysvc"
	"github.com/mkrupp/instalite/internal/svc/imagesvc"
	"github.com/mkrupp/instalite/internal/svc/postsvc"
)

const (
	appName = "instalite"
	svcName = "api"
)

type Config struct {
	config.EnvConfig

	Log         logging.LoggerConfig                `envPrefix:"LOG_"`
	DB          database.SQLiteConfig               `envPrefix:"DB_"`
	Blob        blob.FileSystemBlobRepositoryConfig `envPrefix:"BLOB_"`
	Hasher      identitysvc.HasherConfig            `envPrefix:"HASHER_"`
	Image       imagesvc.ImageConfig                `envPrefix:"IMAGE_"`
	Post        postsvc.PostConfig                  `envPrefix:"POST_"`
	HTTP        http.HTTPTransportConfig            `envPrefix:"HTTP_"`
	UserHTTP    identitysvc.HTTPTransportConfig     `envPrefix:"USER_HTTP_"`
	ImageHTTP   imagesvc.HTTPTransportConfig        `envPrefix:"IMAGE_HTTP_"`
	PostHTTP    postsvc.HTTPTransportConfig         `envPrefix:"POST_HTTP_"`
	CommentHTTP commentsvc.HTTPTransportConfig      `envPrefix:"COMMENT_HTTP_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.LoadDotEnv(".env"); err != nil {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		panic(err)
	}
}

//nolint:funlen
func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.instalite")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	db, err := database.OpenSQLite(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	hasher, err := identitysvc.NewBcryptHasher(cfg.Hasher)
	if err != nil {
		return fmt.Errorf("new hasher: %w", err)
	}

	identitySvc, err := identitysvc.NewIdentityService(user.SQLiteUserRepositoryFactory(db), hasher)
	if err != nil {
		return fmt.Errorf("new identity service: %w", err)
	}

	imageSvc, err := imagesvc.NewBlobImageService(ctx, blob.FileSystemBlobRepositoryFactory(cfg.Blob), cfg.Image)
	if err != nil {
		return fmt.Errorf("new image service: %w", err)
	}

	postSvc, err := postsvc.NewPostService(post.SQLitePostRepositoryFactory(db), imageSvc, cfg.Post)
	if err != nil {
		return fmt.Errorf("new post service: %w", err)
	}

	commentSvc, err := commentsvc.NewCommentService(
		comment.SQLiteCommentRepositoryFactory(db),
		post.SQLitePostRepositoryFactory(db),
	)
	if err != nil {
		return fmt.Errorf("new comment service: %w", err)
	}

	metricsReg := http.NewMetricsRegistry()

	router := http.NewRouter(
		http.Route{
			Prefix:    identitysvc.RoutePrefix,
			Transport: identitysvc.NewHTTPTransport(identitySvc, cfg.UserHTTP),
		},
		http.Route{
			Prefix:    postsvc.RoutePrefix,
			Transport: postsvc.NewHTTPTransport(postSvc, imageSvc, cfg.PostHTTP),
		},
		http.Route{
			Prefix:    commentsvc.RoutePrefix,
			Transport: commentsvc.NewHTTPTransport(commentSvc, cfg.CommentHTTP),
		},
		http.Route{
			Prefix:    imagesvc.RoutePrefix,
			Transport: imagesvc.NewHTTPTransport(imageSvc, cfg.ImageHTTP),
		},
		http.Route{
			Prefix:    "/metrics",
			Transport: http.MetricsHandler(metricsReg),
		},
	)

	if err := http.ListenAndServe(ctx, http.NewHandler(router, metricsReg, cfg.HTTP), cfg.HTTP); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
