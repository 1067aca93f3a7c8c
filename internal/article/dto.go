package article

import (
	"strings"

	internal "github.com/fathurrohman/blog-platform/internal"
)

const maxTags = 10

type CreateArticleDTO struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt,omitempty"`
	FeaturedImage string   `json:"featured_image,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Category      string   `json:"category,omitempty"`
	Status        string   `json:"status,omitempty"`
}

func (d CreateArticleDTO) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return internal.NewValidationError("title is required", internal.ErrCodeInvalidTitle)
	}
	if len(d.Title) > 200 {
		return internal.NewValidationError("title must be at most 200 characters", internal.ErrCodeInvalidTitle)
	}
	if strings.TrimSpace(d.Content) == "" {
		return internal.NewValidationError("content is required", internal.ErrCodeInvalidContent)
	}
	if len(d.Tags) > maxTags {
		return internal.NewValidationError("too many tags", internal.ErrCodeValidationFailed)
	}
	if d.Status != "" {
		status, ok := ParseStatus(d.Status)
		if !ok {
			return internal.NewValidationError("invalid status", internal.ErrCodeInvalidStatus)
		}
		if status == StatusArchived {
			return internal.NewValidationError("a new article cannot start archived", internal.ErrCodeInvalidStatus)
		}
	}
	return nil
}

// UpdateArticleDTO uses pointers so absent fields stay untouched.
type UpdateArticleDTO struct {
	Title         *string   `json:"title,omitempty"`
	Content       *string   `json:"content,omitempty"`
	Excerpt       *string   `json:"excerpt,omitempty"`
	FeaturedImage *string   `json:"featured_image,omitempty"`
	Tags          *[]string `json:"tags,omitempty"`
	Category      *string   `json:"category,omitempty"`
	Status        *string   `json:"status,omitempty"`
}

func (d UpdateArticleDTO) Validate() error {
	if d.Title != nil {
		if strings.TrimSpace(*d.Title) == "" {
			return internal.NewValidationError("title cannot be empty", internal.ErrCodeInvalidTitle)
		}
		if len(*d.Title) > 200 {
			return internal.NewValidationError("title must be at most 200 characters", internal.ErrCodeInvalidTitle)
		}
	}
	if d.Content != nil && strings.TrimSpace(*d.Content) == "" {
		return internal.NewValidationError("content cannot be empty", internal.ErrCodeInvalidContent)
	}
	if d.Tags != nil && len(*d.Tags) > maxTags {
		return internal.NewValidationError("too many tags", internal.ErrCodeValidationFailed)
	}
	if d.Status != nil {
		if _, ok := ParseStatus(*d.Status); !ok {
			return internal.NewValidationError("invalid status", internal.ErrCodeInvalidStatus)
		}
	}
	return nil
}

// ListQuery filters and pages the article listing.
type ListQuery struct {
	Status   string
	AuthorID int64
	Category string
	Tag      string
	Search   string
	Page     int
	PerPage  int
}

func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > 50 {
		q.PerPage = 10
	}
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// LikeResult reports the post-toggle state.
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}
