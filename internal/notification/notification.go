package notification

import "time"

// Type enumerates what happened. MENTION is reserved for @-mentions parsed
// out of comment bodies.
type Type string

const (
	TypeComment          Type = "COMMENT"
	TypeReply            Type = "REPLY"
	TypeArticleLike      Type = "ARTICLE_LIKE"
	TypeCommentLike      Type = "COMMENT_LIKE"
	TypeArticlePublished Type = "ARTICLE_PUBLISHED"
	TypeMention          Type = "MENTION"
)

// Notification is the persisted inbox entry. Delivery over the realtime
// channel is best-effort; the row is the source of truth.
type Notification struct {
	ID               int64      `json:"id"`
	RecipientID      int64      `json:"recipient_id"`
	ActorID          int64      `json:"actor_id"`
	ActorName        string     `json:"actor_name,omitempty"`
	Type             Type       `json:"type"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	Link             string     `json:"link,omitempty"`
	RelatedArticleID int64      `json:"related_article_id,omitempty"`
	RelatedCommentID int64      `json:"related_comment_id,omitempty"`
	IsRead           bool       `json:"is_read"`
	ReadAt           *time.Time `json:"read_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
