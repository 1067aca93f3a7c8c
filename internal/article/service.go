package article

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	internal "github.com/fathurrohman/blog-platform/internal"
	"github.com/fathurrohman/blog-platform/internal/auth"
	"github.com/fathurrohman/blog-platform/internal/core/events"
)

// Repository is the storage surface for articles and their likes.
type Repository interface {
	Create(a *Article) error
	GetByID(articleID int64) (*Article, error)
	GetBySlug(slug string) (*Article, error)
	List(query ListQuery) ([]Article, int64, error)
	Update(a *Article) error
	Delete(articleID int64) error
	SlugExists(slug string) (bool, error)
	IncrementViews(articleID int64) error
	// ToggleLike flips the caller's like and returns the resulting state
	// with the fresh count.
	ToggleLike(articleID, userID int64) (liked bool, count int64, err error)
	HasLiked(articleID, userID int64) (bool, error)
}

type Service struct {
	repo     Repository
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo Repository, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, logger: logger}
}

// Create persists a new article owned by the caller. Requires
// article:create; the slug is derived from the title and deduplicated.
func (s *Service) Create(ctx context.Context, principal *auth.Principal, dto CreateArticleDTO) (*Article, error) {
	allowed, err := auth.Authorize(principal.Role, auth.PermArticleCreate, nil)
	if err != nil {
		return nil, internal.NewInternalError("authorization check failed", err)
	}
	if !allowed {
		return nil, internal.ErrAccessDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	status := StatusDraft
	if dto.Status != "" {
		status, _ = ParseStatus(dto.Status)
	}

	slug, err := s.uniqueSlug(dto.Title)
	if err != nil {
		return nil, internal.NewInternalError("failed to derive slug", err)
	}

	a := &Article{
		Title:          dto.Title,
		Slug:           slug,
		Content:        dto.Content,
		Excerpt:        dto.Excerpt,
		FeaturedImage:  dto.FeaturedImage,
		Tags:           dto.Tags,
		Category:       dto.Category,
		Status:         status,
		AuthorID:       principal.ID,
		AuthorUsername: principal.Username,
		LastModifiedBy: principal.ID,
	}
	if status == StatusPublished {
		now := time.Now()
		a.PublishedAt = &now
	}

	if err := s.repo.Create(a); err != nil {
		s.logger.Error("failed to create article", "error", err, "author_id", principal.ID)
		return nil, internal.NewInternalError("failed to create article", err)
	}

	if a.Status == StatusPublished {
		s.publishPublished(ctx, a)
	}

	s.logger.Info("article created", "article_id", a.ID, "author_id", principal.ID, "status", a.Status)
	return a, nil
}

// GetBySlug loads an article for reading and counts the view. Draft and
// archived articles are only served to callers who could edit them.
func (s *Service) GetBySlug(principal *auth.Principal, slug string) (*Article, error) {
	a, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, internal.ErrArticleNotFound
	}

	if !a.VisibleTo(principal) {
		// Hidden articles read as missing, not forbidden.
		return nil, internal.ErrArticleNotFound
	}

	if a.Status == StatusPublished {
		if err := s.repo.IncrementViews(a.ID); err != nil {
			s.logger.Warn("failed to count view", "error", err, "article_id", a.ID)
		} else {
			a.ViewCount++
		}
	}

	if principal != nil {
		liked, err := s.repo.HasLiked(a.ID, principal.ID)
		if err == nil {
			a.LikedByCaller = liked
		}
	}

	return a, nil
}

// List returns visible articles. Anonymous callers and readers see only
// published ones; a caller with draft access can filter to their own drafts.
func (s *Service) List(principal *auth.Principal, query ListQuery) ([]Article, int64, error) {
	query.Normalize()

	if query.Status != "" {
		status, ok := ParseStatus(query.Status)
		if !ok {
			return nil, 0, internal.NewValidationError("invalid status filter", internal.ErrCodeInvalidStatus)
		}
		if status != StatusPublished && !s.canSeeUnpublished(principal, query.AuthorID) {
			return nil, 0, internal.ErrAccessDenied
		}
		query.Status = string(status)
	} else if !s.canSeeUnpublished(principal, query.AuthorID) {
		query.Status = string(StatusPublished)
	}

	articles, total, err := s.repo.List(query)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list articles", err)
	}
	return articles, total, nil
}

// Update edits content or moves the article through its lifecycle. The
// ownership fallback lets authors edit their own articles while editors and
// admins edit any.
func (s *Service) Update(ctx context.Context, principal *auth.Principal, articleID int64, dto UpdateArticleDTO) (*Article, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByID(articleID)
	if err != nil {
		return nil, internal.ErrArticleNotFound
	}

	allowed, err := auth.Authorize(principal.Role, auth.PermArticleUpdateAny, func() (bool, error) {
		return a.AuthorID == principal.ID, nil
	})
	if err != nil {
		return nil, internal.NewInternalError("authorization check failed", err)
	}
	if !allowed {
		return nil, internal.ErrAccessDenied
	}

	wasPublished := a.Status == StatusPublished

	if dto.Title != nil && *dto.Title != a.Title {
		a.Title = *dto.Title
		slug, err := s.uniqueSlug(a.Title)
		if err != nil {
			return nil, internal.NewInternalError("failed to derive slug", err)
		}
		a.Slug = slug
	}
	if dto.Content != nil {
		a.Content = *dto.Content
	}
	if dto.Excerpt != nil {
		a.Excerpt = *dto.Excerpt
	}
	if dto.FeaturedImage != nil {
		a.FeaturedImage = *dto.FeaturedImage
	}
	if dto.Tags != nil {
		a.Tags = *dto.Tags
	}
	if dto.Category != nil {
		a.Category = *dto.Category
	}
	if dto.Status != nil {
		next, _ := ParseStatus(*dto.Status)
		if !a.Status.CanTransitionTo(next) {
			return nil, internal.NewValidationError(
				fmt.Sprintf("cannot move article from %s to %s", a.Status, next),
				internal.ErrCodeInvalidStatus)
		}
		a.Status = next
		if next == StatusPublished && a.PublishedAt == nil {
			now := time.Now()
			a.PublishedAt = &now
		}
	}
	a.LastModifiedBy = principal.ID

	if err := s.repo.Update(a); err != nil {
		s.logger.Error("failed to update article", "error", err, "article_id", articleID)
		return nil, internal.NewInternalError("failed to update article", err)
	}

	if !wasPublished && a.Status == StatusPublished {
		s.publishPublished(ctx, a)
	}

	s.logger.Info("article updated", "article_id", a.ID, "editor_id", principal.ID)
	return a, nil
}

// Delete removes an article and everything hanging off it.
func (s *Service) Delete(principal *auth.Principal, articleID int64) error {
	a, err := s.repo.GetByID(articleID)
	if err != nil {
		return internal.ErrArticleNotFound
	}

	allowed, err := auth.Authorize(principal.Role, auth.PermArticleDeleteAny, func() (bool, error) {
		return a.AuthorID == principal.ID, nil
	})
	if err != nil {
		return internal.NewInternalError("authorization check failed", err)
	}
	if !allowed {
		return internal.ErrAccessDenied
	}

	if err := s.repo.Delete(articleID); err != nil {
		s.logger.Error("failed to delete article", "error", err, "article_id", articleID)
		return internal.NewInternalError("failed to delete article", err)
	}

	s.logger.Info("article deleted", "article_id", articleID, "deleted_by", principal.ID)
	return nil
}

// ToggleLike flips the caller's like on a published article.
func (s *Service) ToggleLike(ctx context.Context, principal *auth.Principal, articleID int64) (*LikeResult, error) {
	a, err := s.repo.GetByID(articleID)
	if err != nil {
		return nil, internal.ErrArticleNotFound
	}
	if !a.VisibleTo(principal) {
		return nil, internal.ErrArticleNotFound
	}

	liked, count, err := s.repo.ToggleLike(articleID, principal.ID)
	if err != nil {
		s.logger.Error("failed to toggle like", "error", err, "article_id", articleID, "user_id", principal.ID)
		return nil, internal.NewInternalError("failed to toggle like", err)
	}

	if liked {
		event := events.NewArticleLikedEvent(a.ID, a.Title, a.AuthorID, principal.ID, principal.Username)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish article liked event", "error", err, "article_id", a.ID)
		}
	}

	return &LikeResult{Liked: liked, LikeCount: count}, nil
}

func (s *Service) publishPublished(ctx context.Context, a *Article) {
	event := events.NewArticlePublishedEvent(a.ID, a.Title, a.AuthorID, a.AuthorUsername)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish article published event", "error", err, "article_id", a.ID)
	}
}

func (s *Service) canSeeUnpublished(principal *auth.Principal, authorFilter int64) bool {
	if principal == nil {
		return false
	}
	if auth.HasPermission(principal.Role, auth.PermArticleUpdateAny) {
		return true
	}
	// Authors see their own unpublished work, but only when the listing is
	// scoped to themselves.
	return authorFilter == principal.ID && auth.HasPermission(principal.Role, auth.PermArticleReadOwn)
}

func (s *Service) uniqueSlug(title string) (string, error) {
	base := Slugify(title)
	slug := base
	for i := 2; ; i++ {
		exists, err := s.repo.SlugExists(slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
