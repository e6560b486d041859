package postsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/instalite/internal/domain"
	"github.com/mkrupp/instalite/internal/infra/logging"
	"github.com/mkrupp/instalite/internal/repo/post"
	"github.com/mkrupp/instalite/internal/svc/imagesvc"
)

// PostConfig holds configuration for the post service.
type PostConfig struct {
	// DefaultUserID is the author of posts created without a user id
	DefaultUserID int64 `env:"DEFAULT_USER_ID" default:"1"`
}

// PostService publishes posts with an optional image.
type PostService struct {
	postRepo post.Repository
	imageSvc imagesvc.ImageService
	cfg      PostConfig
	log      logging.Logger
}

// NewPostService creates a new PostService with the given post repository factory and image service.
// Returns an error if the post repository cannot be created.
func NewPostService(
	repoFactory post.RepositoryFactory,
	imageSvc imagesvc.ImageService,
	cfg PostConfig,
) (*PostService, error) {
	postRepo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new post repo: %w", err)
	}

	return &PostService{
		postRepo: postRepo,
		imageSvc: imageSvc,
		cfg:      cfg,
		log:      logging.GetLogger("svc.postsvc.post_service"),
	}, nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStorage, err))
}

// CreatePost stores the uploaded image, if any, and then the post referencing it.
// The image is removed again if the post cannot be stored.
func (s *PostService) CreatePost(ctx context.Context, req domain.NewPost) (_ *domain.Post, err error) {
	log := s.log.With(logging.Group("post", "title", req.Title, "user_id", req.UserID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create post failed", "error", err)
		} else {
			log.DebugContext(ctx, "post created")
		}
	}()

	if req.UserID < 0 {
		return nil, domain.NewValidationError("userId", "must be at least 0")
	}

	if req.UserID == 0 {
		req.UserID = s.cfg.DefaultUserID
	}

	var imageName string

	if len(req.ImageData) > 0 {
		imageName, err = s.imageSvc.Store(ctx, req.ImageFilename, req.ImageData)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}

		log = log.With("image_name", imageName)
	}

	now := time.Now().UTC().Truncate(time.Second)

	created, err := s.postRepo.Insert(ctx, domain.Post{
		Title:       req.Title,
		Image:       imageName,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      req.UserID,
	})
	if err != nil {
		if imageName != "" {
			if delErr := s.imageSvc.Delete(ctx, imageName); delErr != nil {
				log.WarnContext(ctx, "orphaned image", "error", delErr)
			}
		}

		return nil, storageError("insert post", err)
	}

	log = log.With("post_id", created.ID)

	return created, nil
}

// GetPost returns the post with the given id, or false if there is none.
func (s *PostService) GetPost(ctx context.Context, id int64) (*domain.Post, bool, error) {
	found, ok, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, false, storageError("find by id", err)
	}

	return found, ok, nil
}

// ListPosts returns all posts in creation order.
func (s *PostService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.postRepo.ListAll(ctx)
	if err != nil {
		return nil, storageError("list posts", err)
	}

	return posts, nil
}

// DeletePost removes the post with the given id and its image and returns
// the removed post, or false if there is none. Failing to remove the image
// does not fail the delete.
func (s *PostService) DeletePost(ctx context.Context, id int64) (_ *domain.Post, ok bool, err error) {
	log := s.log.With(logging.Group("post", "id", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "delete post failed", "error", err)
		} else {
			log.DebugContext(ctx, "post deleted", "found", ok)
		}
	}()

	deleted, ok, err := s.postRepo.DeleteByID(ctx, id)
	if err != nil {
		return nil, false, storageError("delete post", err)
	} else if !ok {
		return nil, false, nil
	}

	if deleted.Image != "" {
		if err := s.imageSvc.Delete(ctx, deleted.Image); err != nil && !errors.Is(err, domain.ErrImageNotFound) {
			log.WarnContext(ctx, "delete image failed", "image", deleted.Image, "error", err)
		}
	}

	return deleted, true, nil
}
