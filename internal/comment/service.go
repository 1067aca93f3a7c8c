package comment

import (
	"context"
	"log/slog"
	"time"

	internal "github.com/fathurrohman/blog-platform/internal"
	"github.com/fathurrohman/blog-platform/internal/article"
	"github.com/fathurrohman/blog-platform/internal/auth"
	"github.com/fathurrohman/blog-platform/internal/core/events"
)

// Repository is the storage surface for comments and their likes.
type Repository interface {
	Create(c *Comment) error
	GetByID(commentID int64) (*Comment, error)
	// ListByArticle returns top-level comments with replies nested, paging
	// over the top level only.
	ListByArticle(articleID int64, query ListQuery) ([]Comment, int64, error)
	Update(c *Comment) error
	SoftDelete(commentID int64) error
	ToggleLike(commentID, userID int64) (liked bool, count int64, err error)
}

// ArticleReader is the slice of article storage comments need: existence,
// visibility and notification routing.
type ArticleReader interface {
	GetByID(articleID int64) (*article.Article, error)
}

type Service struct {
	repo     Repository
	articles ArticleReader
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo Repository, articles ArticleReader, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{repo: repo, articles: articles, eventBus: eventBus, logger: logger}
}

// ListByArticle returns the comment thread of a visible article.
func (s *Service) ListByArticle(principal *auth.Principal, articleID int64, query ListQuery) ([]Comment, int64, error) {
	a, err := s.visibleArticle(principal, articleID)
	if err != nil {
		return nil, 0, err
	}

	query.Normalize()
	comments, total, err := s.repo.ListByArticle(a.ID, query)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list comments", err)
	}
	return comments, total, nil
}

// Get returns a single comment if its article is visible to the caller.
// Deleted comments read as missing.
func (s *Service) Get(principal *auth.Principal, commentID int64) (*Comment, error) {
	c, err := s.repo.GetByID(commentID)
	if err != nil || c == nil || c.IsDeleted {
		return nil, internal.ErrCommentNotFound
	}
	if _, err := s.visibleArticle(principal, c.ArticleID); err != nil {
		return nil, err
	}
	return c, nil
}

// Create adds a comment or reply to a published article and routes the
// notification: replies notify the parent comment's author, top-level
// comments notify the article's author.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, articleID int64, dto CreateCommentDTO) (*Comment, error) {
	allowed, err := auth.Authorize(principal.Role, auth.PermCommentCreate, nil)
	if err != nil {
		return nil, internal.NewInternalError("authorization check failed", err)
	}
	if !allowed {
		return nil, internal.ErrAccessDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a, err := s.visibleArticle(principal, articleID)
	if err != nil {
		return nil, err
	}
	if a.Status != article.StatusPublished {
		return nil, internal.NewValidationError("comments are only allowed on published articles", internal.ErrCodeInvalidStatus)
	}

	recipientID := a.AuthorID
	isReply := dto.ParentCommentID != nil
	if isReply {
		parent, err := s.repo.GetByID(*dto.ParentCommentID)
		if err != nil || parent == nil {
			return nil, internal.ErrCommentNotFound
		}
		if parent.ArticleID != a.ID {
			return nil, internal.NewValidationError("parent comment belongs to another article", internal.ErrCodeInvalidContent)
		}
		if parent.IsDeleted {
			return nil, internal.NewValidationError("cannot reply to a deleted comment", internal.ErrCodeInvalidContent)
		}
		recipientID = parent.AuthorID
	}

	c := &Comment{
		ArticleID:       a.ID,
		AuthorID:        principal.ID,
		AuthorUsername:  principal.Username,
		ParentCommentID: dto.ParentCommentID,
		Content:         dto.Content,
	}
	if err := s.repo.Create(c); err != nil {
		s.logger.Error("failed to create comment", "error", err, "article_id", a.ID)
		return nil, internal.NewInternalError("failed to create comment", err)
	}

	event := events.NewCommentCreatedEvent(c.ID, a.ID, a.Title, principal.ID, principal.Username, recipientID, isReply, c.Content)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish comment created event", "error", err, "comment_id", c.ID)
	}

	s.logger.Info("comment created", "comment_id", c.ID, "article_id", a.ID, "is_reply", isReply)
	return c, nil
}

// Update edits a comment's content and marks it edited.
func (s *Service) Update(ctx context.Context, principal *auth.Principal, commentID int64, dto UpdateCommentDTO) (*Comment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(commentID)
	if err != nil || c == nil {
		return nil, internal.ErrCommentNotFound
	}
	if c.IsDeleted {
		return nil, internal.ErrCommentNotFound
	}

	allowed, err := auth.Authorize(principal.Role, auth.PermCommentUpdateAny, func() (bool, error) {
		return c.AuthorID == principal.ID, nil
	})
	if err != nil {
		return nil, internal.NewInternalError("authorization check failed", err)
	}
	if !allowed {
		return nil, internal.ErrAccessDenied
	}

	now := time.Now()
	c.Content = dto.Content
	c.IsEdited = true
	c.EditedAt = &now
	if err := s.repo.Update(c); err != nil {
		s.logger.Error("failed to update comment", "error", err, "comment_id", commentID)
		return nil, internal.NewInternalError("failed to update comment", err)
	}

	event := events.NewCommentUpdatedEvent(c.ID, c.ArticleID, c.Content)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish comment updated event", "error", err, "comment_id", c.ID)
	}

	return c, nil
}

// Delete soft-deletes a comment, preserving the thread under it.
func (s *Service) Delete(ctx context.Context, principal *auth.Principal, commentID int64) error {
	c, err := s.repo.GetByID(commentID)
	if err != nil || c == nil {
		return internal.ErrCommentNotFound
	}
	if c.IsDeleted {
		return internal.ErrCommentNotFound
	}

	allowed, err := auth.Authorize(principal.Role, auth.PermCommentDeleteAny, func() (bool, error) {
		return c.AuthorID == principal.ID, nil
	})
	if err != nil {
		return internal.NewInternalError("authorization check failed", err)
	}
	if !allowed {
		return internal.ErrAccessDenied
	}

	if err := s.repo.SoftDelete(commentID); err != nil {
		s.logger.Error("failed to delete comment", "error", err, "comment_id", commentID)
		return internal.NewInternalError("failed to delete comment", err)
	}

	event := events.NewCommentDeletedEvent(c.ID, c.ArticleID)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish comment deleted event", "error", err, "comment_id", c.ID)
	}

	s.logger.Info("comment deleted", "comment_id", commentID, "deleted_by", principal.ID)
	return nil
}

// ToggleLike flips the caller's like on a comment.
func (s *Service) ToggleLike(ctx context.Context, principal *auth.Principal, commentID int64) (*LikeResult, error) {
	c, err := s.repo.GetByID(commentID)
	if err != nil || c == nil {
		return nil, internal.ErrCommentNotFound
	}
	if c.IsDeleted {
		return nil, internal.ErrCommentNotFound
	}
	if _, err := s.visibleArticle(principal, c.ArticleID); err != nil {
		return nil, err
	}

	liked, count, err := s.repo.ToggleLike(commentID, principal.ID)
	if err != nil {
		s.logger.Error("failed to toggle comment like", "error", err, "comment_id", commentID)
		return nil, internal.NewInternalError("failed to toggle like", err)
	}

	if liked {
		event := events.NewCommentLikedEvent(c.ID, c.ArticleID, c.AuthorID, principal.ID, principal.Username, count)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish comment liked event", "error", err, "comment_id", c.ID)
		}
	}

	return &LikeResult{Liked: liked, LikeCount: count}, nil
}

func (s *Service) visibleArticle(principal *auth.Principal, articleID int64) (*article.Article, error) {
	a, err := s.articles.GetByID(articleID)
	if err != nil {
		return nil, internal.ErrArticleNotFound
	}
	if !a.VisibleTo(principal) {
		return nil, internal.ErrArticleNotFound
	}
	return a, nil
}
