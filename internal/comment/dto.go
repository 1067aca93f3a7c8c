package comment

import (
	"strings"

	internal "github.com/fathurrohman/blog-platform/internal"
)

const maxContentLength = 2000

type CreateCommentDTO struct {
	Content         string `json:"content"`
	ParentCommentID *int64 `json:"parent_comment_id,omitempty"`
}

func (d CreateCommentDTO) Validate() error {
	if strings.TrimSpace(d.Content) == "" {
		return internal.NewValidationError("content is required", internal.ErrCodeInvalidContent)
	}
	if len(d.Content) > maxContentLength {
		return internal.NewValidationError("content must be at most 2000 characters", internal.ErrCodeInvalidContent)
	}
	return nil
}

type UpdateCommentDTO struct {
	Content string `json:"content"`
}

func (d UpdateCommentDTO) Validate() error {
	if strings.TrimSpace(d.Content) == "" {
		return internal.NewValidationError("content is required", internal.ErrCodeInvalidContent)
	}
	if len(d.Content) > maxContentLength {
		return internal.NewValidationError("content must be at most 2000 characters", internal.ErrCodeInvalidContent)
	}
	return nil
}

// ListQuery pages top-level comments; replies always ride along with their
// parent.
type ListQuery struct {
	Page    int
	PerPage int
}

func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > 100 {
		q.PerPage = 20
	}
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}
