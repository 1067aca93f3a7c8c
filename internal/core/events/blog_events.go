package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeCommentCreated   = "comment.created"
	EventTypeCommentReplied   = "comment.replied"
	EventTypeCommentUpdated   = "comment.updated"
	EventTypeCommentDeleted   = "comment.deleted"
	EventTypeCommentLiked     = "comment.liked"
	EventTypeArticleLiked     = "article.liked"
	EventTypeArticlePublished = "article.published"
)

// CommentCreatedEvent fires for every persisted comment. ParentAuthorID is
// set only for replies; RecipientID is the user that should be notified
// (article author for top-level comments, parent comment author for replies).
type CommentCreatedEvent struct {
	BaseEvent
	CommentID      int64  `json:"comment_id"`
	ArticleID      int64  `json:"article_id"`
	ArticleTitle   string `json:"article_title"`
	AuthorID       int64  `json:"author_id"`
	AuthorUsername string `json:"author_username"`
	RecipientID    int64  `json:"recipient_id"`
	IsReply        bool   `json:"is_reply"`
	Content        string `json:"content"`
}

func NewCommentCreatedEvent(commentID, articleID int64, articleTitle string, authorID int64, authorUsername string, recipientID int64, isReply bool, content string) *CommentCreatedEvent {
	eventType := EventTypeCommentCreated
	if isReply {
		eventType = EventTypeCommentReplied
	}
	return &CommentCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"comment_id": commentID,
				"article_id": articleID,
				"author_id":  authorID,
			},
		},
		CommentID:      commentID,
		ArticleID:      articleID,
		ArticleTitle:   articleTitle,
		AuthorID:       authorID,
		AuthorUsername: authorUsername,
		RecipientID:    recipientID,
		IsReply:        isReply,
		Content:        content,
	}
}

type CommentUpdatedEvent struct {
	BaseEvent
	CommentID int64  `json:"comment_id"`
	ArticleID int64  `json:"article_id"`
	Content   string `json:"content"`
}

func NewCommentUpdatedEvent(commentID, articleID int64, content string) *CommentUpdatedEvent {
	return &CommentUpdatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCommentUpdated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"comment_id": commentID,
				"article_id": articleID,
			},
		},
		CommentID: commentID,
		ArticleID: articleID,
		Content:   content,
	}
}

type CommentDeletedEvent struct {
	BaseEvent
	CommentID int64 `json:"comment_id"`
	ArticleID int64 `json:"article_id"`
}

func NewCommentDeletedEvent(commentID, articleID int64) *CommentDeletedEvent {
	return &CommentDeletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCommentDeleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"comment_id": commentID,
				"article_id": articleID,
			},
		},
		CommentID: commentID,
		ArticleID: articleID,
	}
}

type CommentLikedEvent struct {
	BaseEvent
	CommentID      int64  `json:"comment_id"`
	ArticleID      int64  `json:"article_id"`
	CommentAuthor  int64  `json:"comment_author"`
	LikerID        int64  `json:"liker_id"`
	LikerUsername  string `json:"liker_username"`
	LikesCount     int64  `json:"likes_count"`
}

func NewCommentLikedEvent(commentID, articleID, commentAuthor, likerID int64, likerUsername string, likesCount int64) *CommentLikedEvent {
	return &CommentLikedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCommentLiked,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"comment_id": commentID,
				"article_id": articleID,
				"liker_id":   likerID,
			},
		},
		CommentID:     commentID,
		ArticleID:     articleID,
		CommentAuthor: commentAuthor,
		LikerID:       likerID,
		LikerUsername: likerUsername,
		LikesCount:    likesCount,
	}
}

type ArticleLikedEvent struct {
	BaseEvent
	ArticleID     int64  `json:"article_id"`
	ArticleTitle  string `json:"article_title"`
	ArticleAuthor int64  `json:"article_author"`
	LikerID       int64  `json:"liker_id"`
	LikerUsername string `json:"liker_username"`
}

func NewArticleLikedEvent(articleID int64, articleTitle string, articleAuthor, likerID int64, likerUsername string) *ArticleLikedEvent {
	return &ArticleLikedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeArticleLiked,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"article_id": articleID,
				"liker_id":   likerID,
			},
		},
		ArticleID:     articleID,
		ArticleTitle:  articleTitle,
		ArticleAuthor: articleAuthor,
		LikerID:       likerID,
		LikerUsername: likerUsername,
	}
}

type ArticlePublishedEvent struct {
	BaseEvent
	ArticleID      int64  `json:"article_id"`
	ArticleTitle   string `json:"article_title"`
	AuthorID       int64  `json:"author_id"`
	AuthorUsername string `json:"author_username"`
}

func NewArticlePublishedEvent(articleID int64, articleTitle string, authorID int64, authorUsername string) *ArticlePublishedEvent {
	return &ArticlePublishedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeArticlePublished,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"article_id": articleID,
				"author_id":  authorID,
			},
		},
		ArticleID:      articleID,
		ArticleTitle:   articleTitle,
		AuthorID:       authorID,
		AuthorUsername: authorUsername,
	}
}
