package postgres

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/fathurrohman/blog-platform/internal/article"
	"gorm.io/gorm"
)

type articleRecord struct {
	ID             int64      `gorm:"primaryKey"`
	Title          string     `gorm:"column:title"`
	Slug           string     `gorm:"column:slug;uniqueIndex"`
	Content        string     `gorm:"column:content"`
	Excerpt        string     `gorm:"column:excerpt"`
	FeaturedImage  string     `gorm:"column:featured_image"`
	Tags           string     `gorm:"column:tags"`
	Category       string     `gorm:"column:category;index"`
	Status         string     `gorm:"column:status;index"`
	AuthorID       int64      `gorm:"column:author_id;index"`
	AuthorUsername string     `gorm:"column:author_username;->"`
	LastModifiedBy int64      `gorm:"column:last_modified_by"`
	ViewCount      int64      `gorm:"column:view_count"`
	LikeCount      int64      `gorm:"column:like_count;->"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

// Tags travel as a JSON array in a text column; an unparseable or empty
// value reads back as no tags.
func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}

func (articleRecord) TableName() string { return "articles" }

type likeRecord struct {
	ID        int64     `gorm:"primaryKey"`
	ArticleID int64     `gorm:"column:article_id;index"`
	UserID    int64     `gorm:"column:user_id;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (likeRecord) TableName() string { return "article_likes" }

func (rec *articleRecord) toDomain() *article.Article {
	status, _ := article.ParseStatus(rec.Status)
	return &article.Article{
		ID:             rec.ID,
		Title:          rec.Title,
		Slug:           rec.Slug,
		Content:        rec.Content,
		Excerpt:        rec.Excerpt,
		FeaturedImage:  rec.FeaturedImage,
		Tags:           decodeTags(rec.Tags),
		Category:       rec.Category,
		Status:         status,
		AuthorID:       rec.AuthorID,
		AuthorUsername: rec.AuthorUsername,
		LastModifiedBy: rec.LastModifiedBy,
		ViewCount:      rec.ViewCount,
		LikeCount:      rec.LikeCount,
		PublishedAt:    rec.PublishedAt,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

// selectColumns joins the author username and like count into every read.
const selectColumns = `articles.*,
	(SELECT username FROM users WHERE users.id = articles.author_id) AS author_username,
	(SELECT COUNT(*) FROM article_likes WHERE article_likes.article_id = articles.id) AS like_count`

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(a *article.Article) error {
	rec := articleRecord{
		Title:          a.Title,
		Slug:           a.Slug,
		Content:        a.Content,
		Excerpt:        a.Excerpt,
		FeaturedImage:  a.FeaturedImage,
		Tags:           encodeTags(a.Tags),
		Category:       a.Category,
		Status:         string(a.Status),
		AuthorID:       a.AuthorID,
		LastModifiedBy: a.LastModifiedBy,
		PublishedAt:    a.PublishedAt,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := r.db.Create(&rec).Error; err != nil {
		return err
	}
	a.ID = rec.ID
	a.CreatedAt = rec.CreatedAt
	a.UpdatedAt = rec.UpdatedAt
	return nil
}

func (r *Repository) GetByID(articleID int64) (*article.Article, error) {
	var rec articleRecord
	err := r.db.Select(selectColumns).Where("articles.id = ?", articleID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *Repository) GetBySlug(slug string) (*article.Article, error) {
	var rec articleRecord
	err := r.db.Select(selectColumns).Where("articles.slug = ?", slug).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *Repository) List(query article.ListQuery) ([]article.Article, int64, error) {
	base := r.db.Model(&articleRecord{})
	if query.Status != "" {
		base = base.Where("articles.status = ?", query.Status)
	}
	if query.AuthorID != 0 {
		base = base.Where("articles.author_id = ?", query.AuthorID)
	}
	if query.Category != "" {
		base = base.Where("articles.category = ?", query.Category)
	}
	if query.Tag != "" {
		// tags are a JSON array of strings; match the quoted element
		base = base.Where("articles.tags LIKE ?", `%"`+query.Tag+`"%`)
	}
	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		base = base.Where("articles.title LIKE ? OR articles.content LIKE ?", pattern, pattern)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []articleRecord
	err := base.Select(selectColumns).
		Order("articles.created_at DESC").
		Limit(query.PerPage).
		Offset(query.Offset()).
		Find(&recs).Error
	if err != nil {
		return nil, 0, err
	}

	articles := make([]article.Article, len(recs))
	for i := range recs {
		articles[i] = *recs[i].toDomain()
	}
	return articles, total, nil
}

func (r *Repository) Update(a *article.Article) error {
	return r.db.Model(&articleRecord{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
		"title":            a.Title,
		"slug":             a.Slug,
		"content":          a.Content,
		"excerpt":          a.Excerpt,
		"featured_image":   a.FeaturedImage,
		"tags":             encodeTags(a.Tags),
		"category":         a.Category,
		"status":           string(a.Status),
		"last_modified_by": a.LastModifiedBy,
		"published_at":     a.PublishedAt,
		"updated_at":       time.Now(),
	}).Error
}

// Delete removes the article with its likes and comments in one transaction.
func (r *Repository) Delete(articleID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE article_id = ?)`, articleID).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM comments WHERE article_id = ?`, articleID).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", articleID).Delete(&likeRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&articleRecord{}, articleID).Error
	})
}

func (r *Repository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&articleRecord{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *Repository) IncrementViews(articleID int64) error {
	return r.db.Model(&articleRecord{}).Where("id = ?", articleID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *Repository) ToggleLike(articleID, userID int64) (bool, int64, error) {
	var liked bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing likeRecord
		err := tx.Where("article_id = ? AND user_id = ?", articleID, userID).First(&existing).Error
		switch {
		case err == nil:
			liked = false
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			liked = true
			return tx.Create(&likeRecord{ArticleID: articleID, UserID: userID, CreatedAt: time.Now()}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, 0, err
	}

	var count int64
	if err := r.db.Model(&likeRecord{}).Where("article_id = ?", articleID).Count(&count).Error; err != nil {
		return liked, 0, err
	}
	return liked, count, nil
}

func (r *Repository) HasLiked(articleID, userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&likeRecord{}).Where("article_id = ? AND user_id = ?", articleID, userID).Count(&count).Error
	return count > 0, err
}
