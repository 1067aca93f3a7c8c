package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RefreshToken is the persisted side of a refresh credential. Only the
// SHA-256 hash of the signed token ever reaches storage; the cleartext lives
// exclusively with the client.
type RefreshToken struct {
	ID                  int64      `json:"id" gorm:"primaryKey"`
	TokenHash           string     `json:"-" gorm:"column:token_hash;uniqueIndex;not null"`
	UserID              int64      `json:"user_id" gorm:"column:user_id;index;not null"`
	ExpiresAt           time.Time  `json:"expires_at" gorm:"column:expires_at;index"`
	CreatedByIP         string     `json:"created_by_ip" gorm:"column:created_by_ip"`
	RevokedAt           *time.Time `json:"revoked_at,omitempty" gorm:"column:revoked_at"`
	RevokedByIP         string     `json:"revoked_by_ip,omitempty" gorm:"column:revoked_by_ip"`
	ReplacedByTokenHash string     `json:"-" gorm:"column:replaced_by_token_hash"`
	CreatedAt           time.Time  `json:"created_at" gorm:"column:created_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsActive mirrors the rotation precondition: not revoked and not expired.
func (t *RefreshToken) IsActive() bool {
	return !t.IsRevoked() && !t.IsExpired()
}

// Usable reports why the token cannot be rotated: ErrTokenRevoked,
// ErrTokenExpired, or nil. The distinction stays internal; the service
// normalizes both before anything leaves it.
func (t *RefreshToken) Usable() error {
	if t.IsRevoked() {
		return ErrTokenRevoked
	}
	if t.IsExpired() {
		return ErrTokenExpired
	}
	return nil
}

// RefreshTokenStore persists refresh-token records.
type RefreshTokenStore interface {
	Create(token *RefreshToken) error
	// GetByHash loads the record matching the hash, scoped to the claimed
	// user id.
	GetByHash(tokenHash string, userID int64) (*RefreshToken, error)
	// Revoke marks the record revoked only if it is not revoked yet, and
	// reports whether this call performed the revocation. The conditional
	// write closes the double-rotation window between check and update.
	Revoke(tokenHash string, revokedByIP, replacedByHash string) (bool, error)
	// DeleteExpired purges records whose expiry passed, revoked or not.
	DeleteExpired(before time.Time) (int64, error)
}

// HashToken derives the storage key for a refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
