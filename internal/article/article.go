package article

import (
	"regexp"
	"strings"
	"time"

	"github.com/fathurrohman/blog-platform/internal/auth"
)

// Status is the article lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(s)) {
	case StatusDraft:
		return StatusDraft, true
	case StatusPublished:
		return StatusPublished, true
	case StatusArchived:
		return StatusArchived, true
	}
	return "", false
}

// CanTransitionTo enumerates the legal lifecycle moves. Published articles
// can be archived and archived ones re-published; drafts only go forward.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusDraft:
		return next == StatusPublished
	case StatusPublished:
		return next == StatusArchived
	case StatusArchived:
		return next == StatusPublished
	}
	return false
}

// Article is the core content record.
type Article struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Content        string     `json:"content"`
	Excerpt        string     `json:"excerpt,omitempty"`
	FeaturedImage  string     `json:"featured_image,omitempty"`
	Tags           []string   `json:"tags"`
	Category       string     `json:"category,omitempty"`
	Status         Status     `json:"status"`
	AuthorID       int64      `json:"author_id"`
	AuthorUsername string     `json:"author_username,omitempty"`
	LastModifiedBy int64      `json:"last_modified_by,omitempty"`
	ViewCount      int64      `json:"view_count"`
	LikeCount      int64      `json:"like_count"`
	LikedByCaller  bool       `json:"liked_by_caller,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// VisibleTo decides read access. Published articles are public; drafts and
// archived articles are visible to whoever could edit them.
func (a *Article) VisibleTo(principal *auth.Principal) bool {
	if a.Status == StatusPublished {
		return true
	}
	if principal == nil {
		return false
	}
	if auth.HasPermission(principal.Role, auth.PermArticleUpdateAny) {
		return true
	}
	return a.AuthorID == principal.ID && auth.HasPermission(principal.Role, auth.PermArticleReadOwn)
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	slugDashes  = regexp.MustCompile(`-{2,}`)
)

// Slugify derives a URL slug from a title. Collision handling is the
// caller's job.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "untitled"
	}
	if len(s) > 120 {
		s = strings.Trim(s[:120], "-")
	}
	return s
}
