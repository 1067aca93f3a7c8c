package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fathurrohman/blog-platform/internal/core/events"
)

// Realtime event names as the client sees them.
const (
	EventCommentNew    = "comment:new"
	EventCommentUpdate = "comment:update"
	EventCommentDelete = "comment:delete"
	EventCommentLike   = "comment:like"
)

// EventHandler relays comment activity into article rooms so open article
// pages update live. Notification pushes go through the hub separately via
// EmitToUser.
type EventHandler struct {
	hub    *Hub
	logger *slog.Logger
}

func NewEventHandler(hub *Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{hub: hub, logger: logger}
}

func (h *EventHandler) RegisterHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeCommentCreated, h.handleCommentCreated)
	bus.Subscribe(events.EventTypeCommentReplied, h.handleCommentCreated)
	bus.Subscribe(events.EventTypeCommentUpdated, h.handleCommentUpdated)
	bus.Subscribe(events.EventTypeCommentDeleted, h.handleCommentDeleted)
	bus.Subscribe(events.EventTypeCommentLiked, h.handleCommentLiked)
}

func (h *EventHandler) handleCommentCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.CommentCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	h.hub.EmitToArticle(e.ArticleID, EventCommentNew, map[string]interface{}{
		"comment_id":      e.CommentID,
		"article_id":      e.ArticleID,
		"author_id":       e.AuthorID,
		"author_username": e.AuthorUsername,
		"is_reply":        e.IsReply,
		"content":         e.Content,
	})
	return nil
}

func (h *EventHandler) handleCommentUpdated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.CommentUpdatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	h.hub.EmitToArticle(e.ArticleID, EventCommentUpdate, map[string]interface{}{
		"comment_id": e.CommentID,
		"article_id": e.ArticleID,
		"content":    e.Content,
	})
	return nil
}

func (h *EventHandler) handleCommentDeleted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.CommentDeletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	h.hub.EmitToArticle(e.ArticleID, EventCommentDelete, map[string]interface{}{
		"comment_id": e.CommentID,
		"article_id": e.ArticleID,
	})
	return nil
}

func (h *EventHandler) handleCommentLiked(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.CommentLikedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	h.hub.EmitToArticle(e.ArticleID, EventCommentLike, map[string]interface{}{
		"comment_id":  e.CommentID,
		"article_id":  e.ArticleID,
		"likes_count": e.LikesCount,
	})
	return nil
}
