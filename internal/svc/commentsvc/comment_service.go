package commentsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/instalite/internal/domain"
	"github.com/mkrupp/instalite/internal/infra/logging"
	"github.com/mkrupp/instalite/internal/repo/comment"
	"github.com/mkrupp/instalite/internal/repo/post"
)

// CommentService stores remarks on existing posts.
type CommentService struct {
	commentRepo comment.Repository
	postRepo    post.Repository
	log         logging.Logger
}

// NewCommentService creates a new CommentService.
// Returns an error if one of the repositories cannot be created.
func NewCommentService(
	commentRepoFactory comment.RepositoryFactory,
	postRepoFactory post.RepositoryFactory,
) (*CommentService, error) {
	commentRepo, err := commentRepoFactory()
	if err != nil {
		return nil, fmt.Errorf("new comment repo: %w", err)
	}

	postRepo, err := postRepoFactory()
	if err != nil {
		return nil, fmt.Errorf("new post repo: %w", err)
	}

	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		log:         logging.GetLogger("svc.commentsvc.comment_service"),
	}, nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStorage, err))
}

// CreateComment stores a comment on the post given by req.PostID.
// Returns ErrPostNotFound if there is no such post.
func (s *CommentService) CreateComment(
	ctx context.Context,
	req domain.CreateCommentRequest,
) (_ *domain.Comment, err error) {
	log := s.log.With(logging.Group("comment", "post_id", req.PostID, "user_id", req.UserID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create comment failed", "error", err)
		} else {
			log.DebugContext(ctx, "comment created")
		}
	}()

	if err := domain.Validate(req); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	if _, found, err := s.postRepo.FindByID(ctx, req.PostID); err != nil {
		return nil, storageError("find post", err)
	} else if !found {
		return nil, domain.ErrPostNotFound
	}

	created, err := s.commentRepo.Insert(ctx, domain.Comment{
		ImageComment: req.ImageComment,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		PostID:       req.PostID,
		UserID:       req.UserID,
		Username:     req.Username,
	})
	if err != nil {
		return nil, storageError("insert comment", err)
	}

	log = log.With("comment_id", created.ID)

	return created, nil
}

// GetComment returns the comment with the given id, or false if there is none.
func (s *CommentService) GetComment(ctx context.Context, id int64) (*domain.Comment, bool, error) {
	found, ok, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, false, storageError("find by id", err)
	}

	return found, ok, nil
}

// ListComments returns all comments in creation order.
func (s *CommentService) ListComments(ctx context.Context) ([]domain.Comment, error) {
	comments, err := s.commentRepo.ListAll(ctx)
	if err != nil {
		return nil, storageError("list comments", err)
	}

	return comments, nil
}

// DeleteComment removes the comment with the given id and returns it, or false if there is none.
func (s *CommentService) DeleteComment(ctx context.Context, id int64) (_ *domain.Comment, ok bool, err error) {
	log := s.log.With(logging.Group("comment", "id", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "delete comment failed", "error", err)
		} else {
			log.DebugContext(ctx, "comment deleted", "found", ok)
		}
	}()

	deleted, ok, err := s.commentRepo.DeleteByID(ctx, id)
	if err != nil {
		return nil, false, storageError("delete comment", err)
	}

	return deleted, ok, nil
}
