package comment

import (
	"time"
)

// Comment is a threaded article comment. Deletion is soft: the row stays
// flagged is_deleted and every read path excludes it.
type Comment struct {
	ID              int64      `json:"id"`
	ArticleID       int64      `json:"article_id"`
	AuthorID        int64      `json:"author_id"`
	AuthorUsername  string     `json:"author_username,omitempty"`
	ParentCommentID *int64     `json:"parent_comment_id,omitempty"`
	Content         string     `json:"content"`
	IsEdited        bool       `json:"is_edited"`
	EditedAt        *time.Time `json:"edited_at,omitempty"`
	IsDeleted       bool       `json:"is_deleted"`
	LikeCount       int64      `json:"like_count"`
	LikedByCaller   bool       `json:"liked_by_caller,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"-"`
	Replies         []Comment  `json:"replies,omitempty"`
}
