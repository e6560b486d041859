package domain

import (
	"fmt"
	"time"
)

// ErrCommentNotFound is returned when looking up a non-existent comment.
var ErrCommentNotFound = fmt.Errorf("%w: comment", ErrNotFound)

// Comment is a remark left on a post.
type Comment struct {
	ID           int64
	ImageComment string
	CreatedAt    time.Time
	PostID       int64
	UserID       int64
	Username     string
}

// CommentResponse is the public representation of a comment.
type CommentResponse struct {
	ID           int64     `json:"id"`
	ImageComment string    `json:"imageComment"`
	CreatedAt    time.Time `json:"createdAt"`
	PostID       int64     `json:"postId"`
	UserID       int64     `json:"userId"`
	Username     string    `json:"username"`
}

// Response converts the comment into its public JSON shape.
func (c Comment) Response() CommentResponse {
	return CommentResponse{
		ID:           c.ID,
		ImageComment: c.ImageComment,
		CreatedAt:    c.CreatedAt,
		PostID:       c.PostID,
		UserID:       c.UserID,
		Username:     c.Username,
	}
}

// NewCommentResponses converts a list of comments into their public JSON shape.
func NewCommentResponses(comments []Comment) []CommentResponse {
	resp := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, c.Response())
	}

	return resp
}

// CreateCommentRequest is the body of a comment creation request.
type CreateCommentRequest struct {
	ImageComment string `json:"imageComment" validate:"required,notblank"`
	PostID       int64  `json:"postId"       validate:"required,gt=0"`
	UserID       int64  `json:"userId"       validate:"gte=0"`
	Username     string `json:"username"`
}
