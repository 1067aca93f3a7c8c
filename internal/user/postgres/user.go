package postgres

import (
	"errors"
	"time"

	"github.com/fathurrohman/blog-platform/internal/auth"
	"github.com/fathurrohman/blog-platform/internal/user"
	"gorm.io/gorm"
)

type userRecord struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"column:username;uniqueIndex"`
	Email        string    `gorm:"column:email;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash"`
	Role         string    `gorm:"column:role"`
	Avatar       string    `gorm:"column:avatar"`
	Bio          string    `gorm:"column:bio"`
	IsActive     bool      `gorm:"column:is_active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

func (rec *userRecord) toDomain() *user.User {
	role, _ := auth.ParseRole(rec.Role)
	return &user.User{
		ID:           rec.ID,
		Username:     rec.Username,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Role:         role,
		Avatar:       rec.Avatar,
		Bio:          rec.Bio,
		IsActive:     rec.IsActive,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(userID int64) (*user.User, error) {
	var rec userRecord
	if err := r.db.First(&rec, userID).Error; err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *Repository) GetByUsername(username string) (*user.User, error) {
	var rec userRecord
	err := r.db.Where("username = ?", username).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *Repository) List(query user.ListQuery) ([]user.User, int64, error) {
	var total int64
	if err := r.db.Model(&userRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []userRecord
	err := r.db.Order("created_at DESC").
		Limit(query.PerPage).
		Offset(query.Offset()).
		Find(&recs).Error
	if err != nil {
		return nil, 0, err
	}

	users := make([]user.User, len(recs))
	for i := range recs {
		users[i] = *recs[i].toDomain()
	}
	return users, total, nil
}

func (r *Repository) Update(u *user.User) error {
	return r.db.Model(&userRecord{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"username":   u.Username,
		"role":       string(u.Role),
		"avatar":     u.Avatar,
		"bio":        u.Bio,
		"is_active":  u.IsActive,
		"updated_at": time.Now(),
	}).Error
}

func (r *Repository) Delete(userID int64) error {
	return r.db.Delete(&userRecord{}, userID).Error
}

// HasAuthoredContent checks articles and comments for rows attributed to the
// user.
func (r *Repository) HasAuthoredContent(userID int64) (bool, error) {
	var count int64
	err := r.db.Table("articles").Where("author_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = r.db.Table("comments").Where("author_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
