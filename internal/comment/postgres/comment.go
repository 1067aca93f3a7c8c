package postgres

import (
	"errors"
	"time"

	"github.com/fathurrohman/blog-platform/internal/comment"
	"gorm.io/gorm"
)

type commentRecord struct {
	ID              int64      `gorm:"primaryKey"`
	ArticleID       int64      `gorm:"column:article_id;index"`
	AuthorID        int64      `gorm:"column:author_id;index"`
	AuthorUsername  string     `gorm:"column:author_username;->"`
	ParentCommentID *int64     `gorm:"column:parent_comment_id;index"`
	Content         string     `gorm:"column:content"`
	IsEdited        bool       `gorm:"column:is_edited"`
	EditedAt        *time.Time `gorm:"column:edited_at"`
	IsDeleted       bool       `gorm:"column:is_deleted"`
	LikeCount       int64      `gorm:"column:like_count;->"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
	DeletedAt       *time.Time `gorm:"column:deleted_at"`
}

func (commentRecord) TableName() string { return "comments" }

type commentLikeRecord struct {
	ID        int64     `gorm:"primaryKey"`
	CommentID int64     `gorm:"column:comment_id;index"`
	UserID    int64     `gorm:"column:user_id;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (commentLikeRecord) TableName() string { return "comment_likes" }

const selectColumns = `comments.*,
	(SELECT username FROM users WHERE users.id = comments.author_id) AS author_username,
	(SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id) AS like_count`

func (rec *commentRecord) toDomain() *comment.Comment {
	return &comment.Comment{
		ID:              rec.ID,
		ArticleID:       rec.ArticleID,
		AuthorID:        rec.AuthorID,
		AuthorUsername:  rec.AuthorUsername,
		ParentCommentID: rec.ParentCommentID,
		Content:         rec.Content,
		IsEdited:        rec.IsEdited,
		EditedAt:        rec.EditedAt,
		IsDeleted:       rec.IsDeleted,
		LikeCount:       rec.LikeCount,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
		DeletedAt:       rec.DeletedAt,
	}
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(c *comment.Comment) error {
	rec := commentRecord{
		ArticleID:       c.ArticleID,
		AuthorID:        c.AuthorID,
		ParentCommentID: c.ParentCommentID,
		Content:         c.Content,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := r.db.Create(&rec).Error; err != nil {
		return err
	}
	c.ID = rec.ID
	c.CreatedAt = rec.CreatedAt
	c.UpdatedAt = rec.UpdatedAt
	return nil
}

func (r *Repository) GetByID(commentID int64) (*comment.Comment, error) {
	var rec commentRecord
	err := r.db.Select(selectColumns).Where("comments.id = ?", commentID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec.toDomain(), nil
}

// ListByArticle pages top-level comments oldest-first and attaches every
// reply to its parent in one extra query. Soft-deleted rows never leave the
// repository; replies under a deleted parent are dropped with it.
func (r *Repository) ListByArticle(articleID int64, query comment.ListQuery) ([]comment.Comment, int64, error) {
	var total int64
	err := r.db.Model(&commentRecord{}).
		Where("article_id = ? AND parent_comment_id IS NULL AND is_deleted = ?", articleID, false).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var topLevel []commentRecord
	err = r.db.Select(selectColumns).
		Where("comments.article_id = ? AND comments.parent_comment_id IS NULL AND comments.is_deleted = ?", articleID, false).
		Order("comments.created_at ASC").
		Limit(query.PerPage).
		Offset(query.Offset()).
		Find(&topLevel).Error
	if err != nil {
		return nil, 0, err
	}

	var replies []commentRecord
	err = r.db.Select(selectColumns).
		Where("comments.article_id = ? AND comments.parent_comment_id IS NOT NULL AND comments.is_deleted = ?", articleID, false).
		Order("comments.created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, 0, err
	}

	byParent := make(map[int64][]comment.Comment)
	for i := range replies {
		c := *replies[i].toDomain()
		byParent[*c.ParentCommentID] = append(byParent[*c.ParentCommentID], c)
	}

	out := make([]comment.Comment, len(topLevel))
	for i := range topLevel {
		c := *topLevel[i].toDomain()
		attachReplies(&c, byParent)
		out[i] = c
	}
	return out, total, nil
}

func attachReplies(c *comment.Comment, byParent map[int64][]comment.Comment) {
	children := byParent[c.ID]
	for i := range children {
		attachReplies(&children[i], byParent)
	}
	c.Replies = children
}

func (r *Repository) Update(c *comment.Comment) error {
	return r.db.Model(&commentRecord{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"content":    c.Content,
		"is_edited":  c.IsEdited,
		"edited_at":  c.EditedAt,
		"updated_at": time.Now(),
	}).Error
}

func (r *Repository) SoftDelete(commentID int64) error {
	now := time.Now()
	return r.db.Model(&commentRecord{}).Where("id = ?", commentID).Updates(map[string]interface{}{
		"is_deleted": true,
		"deleted_at": now,
		"updated_at": now,
	}).Error
}

func (r *Repository) ToggleLike(commentID, userID int64) (bool, int64, error) {
	var liked bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing commentLikeRecord
		err := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error
		switch {
		case err == nil:
			liked = false
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			liked = true
			return tx.Create(&commentLikeRecord{CommentID: commentID, UserID: userID, CreatedAt: time.Now()}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, 0, err
	}

	var count int64
	if err := r.db.Model(&commentLikeRecord{}).Where("comment_id = ?", commentID).Count(&count).Error; err != nil {
		return liked, 0, err
	}
	return liked, count, nil
}
