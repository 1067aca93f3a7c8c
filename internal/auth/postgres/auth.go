package postgres

import (
	"errors"
	"time"

	"github.com/fathurrohman/blog-platform/internal/auth"
	"gorm.io/gorm"
)

// userRecord maps the auth view of the users table.
type userRecord struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"column:username"`
	Email        string    `gorm:"column:email"`
	PasswordHash string    `gorm:"column:password_hash"`
	Role         string    `gorm:"column:role"`
	Avatar       string    `gorm:"column:avatar"`
	IsActive     bool      `gorm:"column:is_active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (userRecord) TableName() string { return "users" }

func (rec *userRecord) toDomain() *auth.User {
	role, _ := auth.ParseRole(rec.Role)
	return &auth.User{
		ID:           rec.ID,
		Username:     rec.Username,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Role:         role,
		Avatar:       rec.Avatar,
		IsActive:     rec.IsActive,
		CreatedAt:    rec.CreatedAt,
	}
}

// Repository backs the auth service with gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByEmail(email string) (*auth.User, error) {
	var rec userRecord
	if err := r.db.Where("email = ?", email).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *Repository) GetByID(userID int64) (*auth.User, error) {
	var rec userRecord
	if err := r.db.First(&rec, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *Repository) GetByEmailOrUsername(email, username string) (*auth.User, error) {
	var rec userRecord
	err := r.db.Where("email = ? OR username = ?", email, username).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *Repository) Create(user *auth.User) error {
	rec := userRecord{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Avatar:       user.Avatar,
		IsActive:     user.IsActive,
		CreatedAt:    time.Now(),
	}
	if err := r.db.Create(&rec).Error; err != nil {
		return err
	}
	user.ID = rec.ID
	user.CreatedAt = rec.CreatedAt
	return nil
}

// TokenStore persists refresh-token records.
type TokenStore struct {
	db *gorm.DB
}

func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{db: db}
}

func (s *TokenStore) Create(token *auth.RefreshToken) error {
	return s.db.Create(token).Error
}

func (s *TokenStore) GetByHash(tokenHash string, userID int64) (*auth.RefreshToken, error) {
	var rec auth.RefreshToken
	err := s.db.Where("token_hash = ? AND user_id = ?", tokenHash, userID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Revoke performs a conditional update: the revoked_at IS NULL guard means
// that of two racing rotations only one observes RowsAffected == 1.
func (s *TokenStore) Revoke(tokenHash string, revokedByIP, replacedByHash string) (bool, error) {
	now := time.Now()
	res := s.db.Model(&auth.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		Updates(map[string]interface{}{
			"revoked_at":             now,
			"revoked_by_ip":          revokedByIP,
			"replaced_by_token_hash": replacedByHash,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *TokenStore) DeleteExpired(before time.Time) (int64, error) {
	res := s.db.Where("expires_at < ?", before).Delete(&auth.RefreshToken{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
