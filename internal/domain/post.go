package domain

import (
	"fmt"
	"time"
)

// ErrPostNotFound is returned when looking up a non-existent post.
var ErrPostNotFound = fmt.Errorf("%w: post", ErrNotFound)

// Post is a user publication with an optional image.
type Post struct {
	ID          int64
	Title       string
	Image       string // Stored image name, empty if the post has no image
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      int64
}

// PostResponse is the public representation of a post.
type PostResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Image       string    `json:"image"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UserID      int64     `json:"userId"`
}

// Response converts the post into its public JSON shape.
func (p Post) Response() PostResponse {
	return PostResponse{
		ID:          p.ID,
		Title:       p.Title,
		Image:       p.Image,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		UserID:      p.UserID,
	}
}

// NewPostResponses converts a list of posts into their public JSON shape.
func NewPostResponses(posts []Post) []PostResponse {
	resp := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, p.Response())
	}

	return resp
}

// NewPost carries the fields of a post to be created.
type NewPost struct {
	Title         string
	Description   string
	UserID        int64
	ImageFilename string // Original file name of the uploaded image
	ImageData     []byte // Nil if no image was uploaded
}
