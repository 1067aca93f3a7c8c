package user

import (
	internal "github.com/fathurrohman/blog-platform/internal"
	"github.com/fathurrohman/blog-platform/internal/auth"
)

// UpdateProfileDTO carries the self-service profile fields. Pointers
// distinguish "leave unchanged" from "set to empty".
type UpdateProfileDTO struct {
	Username *string `json:"username,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

func (d UpdateProfileDTO) Validate() error {
	if d.Username != nil && (len(*d.Username) < 3 || len(*d.Username) > 30) {
		return internal.NewValidationError("username must be 3-30 characters", internal.ErrCodeValidationFailed)
	}
	if d.Bio != nil && len(*d.Bio) > 500 {
		return internal.NewValidationError("bio must be at most 500 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

// AdminUpdateUserDTO is the admin-only mutation surface: role and account
// state, nothing else.
type AdminUpdateUserDTO struct {
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (d AdminUpdateUserDTO) Validate() error {
	if d.Role != nil {
		if _, ok := auth.ParseRole(*d.Role); !ok {
			return internal.NewValidationError("invalid role", internal.ErrCodeInvalidRole)
		}
	}
	return nil
}

// ListQuery paginates the admin user listing.
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
