package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fathurrohman/blog-platform/internal/core/events"
)

// EventHandler turns domain events into inbox entries. Self-notifications
// (actor == recipient) are suppressed inside the service.
type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: service, logger: logger}
}

// RegisterHandlers wires the handler into the bus.
func (h *EventHandler) RegisterHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeCommentCreated, h.handleCommentCreated)
	bus.Subscribe(events.EventTypeCommentReplied, h.handleCommentCreated)
	bus.Subscribe(events.EventTypeArticleLiked, h.handleArticleLiked)
	bus.Subscribe(events.EventTypeCommentLiked, h.handleCommentLiked)
}

func (h *EventHandler) handleCommentCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.CommentCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	n := &Notification{
		RecipientID:      e.RecipientID,
		ActorID:          e.AuthorID,
		ActorName:        e.AuthorUsername,
		Link:             articleLink(e.ArticleID),
		RelatedArticleID: e.ArticleID,
		RelatedCommentID: e.CommentID,
	}
	if e.IsReply {
		n.Type = TypeReply
		n.Title = "New reply"
		n.Message = fmt.Sprintf("%s replied to your comment on %q", e.AuthorUsername, e.ArticleTitle)
	} else {
		n.Type = TypeComment
		n.Title = "New comment"
		n.Message = fmt.Sprintf("%s commented on your article %q", e.AuthorUsername, e.ArticleTitle)
	}

	return h.service.Notify(n)
}

func (h *EventHandler) handleArticleLiked(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ArticleLikedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	return h.service.Notify(&Notification{
		RecipientID:      e.ArticleAuthor,
		ActorID:          e.LikerID,
		ActorName:        e.LikerUsername,
		Type:             TypeArticleLike,
		Title:            "Article liked",
		Message:          fmt.Sprintf("%s liked your article %q", e.LikerUsername, e.ArticleTitle),
		Link:             articleLink(e.ArticleID),
		RelatedArticleID: e.ArticleID,
	})
}

func (h *EventHandler) handleCommentLiked(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.CommentLikedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	return h.service.Notify(&Notification{
		RecipientID:      e.CommentAuthor,
		ActorID:          e.LikerID,
		ActorName:        e.LikerUsername,
		Type:             TypeCommentLike,
		Title:            "Comment liked",
		Message:          fmt.Sprintf("%s liked your comment", e.LikerUsername),
		Link:             articleLink(e.ArticleID),
		RelatedArticleID: e.ArticleID,
		RelatedCommentID: e.CommentID,
	})
}

func articleLink(articleID int64) string {
	return fmt.Sprintf("/articles/%d", articleID)
}
