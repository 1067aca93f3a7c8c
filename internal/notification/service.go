package notification

import (
	"log/slog"

	internal "github.com/fathurrohman/blog-platform/internal"
	"github.com/fathurrohman/blog-platform/internal/auth"
)

// Repository is the storage surface for the notification inbox.
type Repository interface {
	Create(n *Notification) error
	GetByID(notificationID int64) (*Notification, error)
	ListByRecipient(recipientID int64, unreadOnly bool, query ListQuery) ([]Notification, int64, error)
	CountUnread(recipientID int64) (int64, error)
	MarkRead(notificationID int64) error
	MarkAllRead(recipientID int64) (int64, error)
	Delete(notificationID int64) error
}

// Pusher delivers a notification to a connected recipient. Implementations
// must never block the caller; a recipient without a connection is not an
// error.
type Pusher interface {
	EmitToUser(userID int64, event string, payload interface{})
}

// PushEventName is the realtime event notifications ride on.
const PushEventName = "notification"

type Service struct {
	repo   Repository
	pusher Pusher
	logger *slog.Logger
}

func NewService(repo Repository, pusher Pusher, logger *slog.Logger) *Service {
	return &Service{repo: repo, pusher: pusher, logger: logger}
}

// Notify persists the notification and then pushes it. Persistence failure
// aborts; push failure does not exist as a concept here, delivery is
// fire-and-forget.
func (s *Service) Notify(n *Notification) error {
	if n.RecipientID == n.ActorID {
		// Nobody wants a notification about their own action.
		return nil
	}

	if err := s.repo.Create(n); err != nil {
		s.logger.Error("failed to persist notification",
			"error", err,
			"recipient_id", n.RecipientID,
			"type", n.Type)
		return err
	}

	if s.pusher != nil {
		s.pusher.EmitToUser(n.RecipientID, PushEventName, n)
	}

	s.logger.Debug("notification dispatched", "notification_id", n.ID, "recipient_id", n.RecipientID, "type", n.Type)
	return nil
}

// List returns the caller's inbox, newest first.
func (s *Service) List(principal *auth.Principal, unreadOnly bool, query ListQuery) ([]Notification, int64, error) {
	query.Normalize()
	notifications, total, err := s.repo.ListByRecipient(principal.ID, unreadOnly, query)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list notifications", err)
	}
	return notifications, total, nil
}

// UnreadCount returns the badge number.
func (s *Service) UnreadCount(principal *auth.Principal) (int64, error) {
	count, err := s.repo.CountUnread(principal.ID)
	if err != nil {
		return 0, internal.NewInternalError("failed to count notifications", err)
	}
	return count, nil
}

// MarkRead marks one of the caller's notifications read. Already-read is a
// no-op, someone else's notification reads as missing.
func (s *Service) MarkRead(principal *auth.Principal, notificationID int64) error {
	n, err := s.ownNotification(principal, notificationID)
	if err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	if err := s.repo.MarkRead(notificationID); err != nil {
		return internal.NewInternalError("failed to mark notification read", err)
	}
	return nil
}

// MarkAllRead clears the caller's unread set and reports how many flipped.
func (s *Service) MarkAllRead(principal *auth.Principal) (int64, error) {
	n, err := s.repo.MarkAllRead(principal.ID)
	if err != nil {
		return 0, internal.NewInternalError("failed to mark notifications read", err)
	}
	return n, nil
}

// Delete removes one of the caller's notifications.
func (s *Service) Delete(principal *auth.Principal, notificationID int64) error {
	if _, err := s.ownNotification(principal, notificationID); err != nil {
		return err
	}
	if err := s.repo.Delete(notificationID); err != nil {
		return internal.NewInternalError("failed to delete notification", err)
	}
	return nil
}

func (s *Service) ownNotification(principal *auth.Principal, notificationID int64) (*Notification, error) {
	n, err := s.repo.GetByID(notificationID)
	if err != nil || n == nil {
		return nil, internal.ErrNotificationNotFound
	}
	if n.RecipientID != principal.ID {
		return nil, internal.ErrNotificationNotFound
	}
	return n, nil
}

// ListQuery pages the inbox.
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
