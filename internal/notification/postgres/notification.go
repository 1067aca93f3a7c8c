package postgres

import (
	"errors"
	"time"

	"github.com/fathurrohman/blog-platform/internal/notification"
	"gorm.io/gorm"
)

type notificationRecord struct {
	ID               int64      `gorm:"primaryKey"`
	RecipientID      int64      `gorm:"column:recipient_id;index"`
	ActorID          int64      `gorm:"column:actor_id"`
	ActorName        string     `gorm:"column:actor_name"`
	Type             string     `gorm:"column:type"`
	Title            string     `gorm:"column:title"`
	Message          string     `gorm:"column:message"`
	Link             string     `gorm:"column:link"`
	RelatedArticleID int64      `gorm:"column:related_article_id"`
	RelatedCommentID int64      `gorm:"column:related_comment_id"`
	IsRead           bool       `gorm:"column:is_read;index"`
	ReadAt           *time.Time `gorm:"column:read_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
}

func (notificationRecord) TableName() string { return "notifications" }

func (rec *notificationRecord) toDomain() *notification.Notification {
	return &notification.Notification{
		ID:               rec.ID,
		RecipientID:      rec.RecipientID,
		ActorID:          rec.ActorID,
		ActorName:        rec.ActorName,
		Type:             notification.Type(rec.Type),
		Title:            rec.Title,
		Message:          rec.Message,
		Link:             rec.Link,
		RelatedArticleID: rec.RelatedArticleID,
		RelatedCommentID: rec.RelatedCommentID,
		IsRead:           rec.IsRead,
		ReadAt:           rec.ReadAt,
		CreatedAt:        rec.CreatedAt,
	}
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(n *notification.Notification) error {
	rec := notificationRecord{
		RecipientID:      n.RecipientID,
		ActorID:          n.ActorID,
		ActorName:        n.ActorName,
		Type:             string(n.Type),
		Title:            n.Title,
		Message:          n.Message,
		Link:             n.Link,
		RelatedArticleID: n.RelatedArticleID,
		RelatedCommentID: n.RelatedCommentID,
		CreatedAt:        time.Now(),
	}
	if err := r.db.Create(&rec).Error; err != nil {
		return err
	}
	n.ID = rec.ID
	n.CreatedAt = rec.CreatedAt
	return nil
}

func (r *Repository) GetByID(notificationID int64) (*notification.Notification, error) {
	var rec notificationRecord
	if err := r.db.First(&rec, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *Repository) ListByRecipient(recipientID int64, unreadOnly bool, query notification.ListQuery) ([]notification.Notification, int64, error) {
	base := r.db.Model(&notificationRecord{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		base = base.Where("is_read = ?", false)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []notificationRecord
	err := base.Order("created_at DESC").
		Limit(query.PerPage).
		Offset(query.Offset()).
		Find(&recs).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]notification.Notification, len(recs))
	for i := range recs {
		out[i] = *recs[i].toDomain()
	}
	return out, total, nil
}

func (r *Repository) CountUnread(recipientID int64) (int64, error) {
	var count int64
	err := r.db.Model(&notificationRecord{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *Repository) MarkRead(notificationID int64) error {
	return r.db.Model(&notificationRecord{}).Where("id = ?", notificationID).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": time.Now(),
	}).Error
}

func (r *Repository) MarkAllRead(recipientID int64) (int64, error) {
	res := r.db.Model(&notificationRecord{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(notificationID int64) error {
	return r.db.Delete(&notificationRecord{}, notificationID).Error
}
