package user

import (
	"log/slog"

	internal "github.com/fathurrohman/blog-platform/internal"
	"github.com/fathurrohman/blog-platform/internal/auth"
)

// Repository is the storage surface for accounts.
type Repository interface {
	GetByID(userID int64) (*User, error)
	GetByUsername(username string) (*User, error)
	List(query ListQuery) ([]User, int64, error)
	Update(u *User) error
	// Delete removes the row permanently.
	Delete(userID int64) error
	// HasAuthoredContent reports whether any article or comment references
	// the user. Such accounts are deactivated instead of deleted so their
	// content keeps a valid author.
	HasAuthoredContent(userID int64) (bool, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetProfile returns the caller's own account record.
func (s *Service) GetProfile(principal *auth.Principal) (*User, error) {
	u, err := s.repo.GetByID(principal.ID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile applies the caller's self-service edits.
func (s *Service) UpdateProfile(principal *auth.Principal, dto UpdateProfileDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(principal.ID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	if dto.Username != nil && *dto.Username != u.Username {
		if existing, err := s.repo.GetByUsername(*dto.Username); err == nil && existing != nil {
			return nil, internal.NewConflictError("Username already taken", internal.ErrCodeUsernameTaken)
		}
		u.Username = *dto.Username
	}
	if dto.Avatar != nil {
		u.Avatar = *dto.Avatar
	}
	if dto.Bio != nil {
		u.Bio = *dto.Bio
	}

	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to update profile", "error", err, "user_id", u.ID)
		return nil, internal.NewInternalError("failed to update profile", err)
	}
	return u, nil
}

// GetPublicProfile returns another user's public view.
func (s *Service) GetPublicProfile(userID int64) (*PublicProfile, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	profile := u.Public()
	return &profile, nil
}

// List pages through accounts. Requires user:read:any.
func (s *Service) List(principal *auth.Principal, query ListQuery) ([]User, int64, error) {
	allowed, err := auth.Authorize(principal.Role, auth.PermUserReadAny, nil)
	if err != nil {
		return nil, 0, internal.NewInternalError("authorization check failed", err)
	}
	if !allowed {
		return nil, 0, internal.ErrAccessDenied
	}

	query.Normalize()
	users, total, err := s.repo.List(query)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list users", err)
	}
	return users, total, nil
}

// Get returns a full account record for an admin or editor.
func (s *Service) Get(principal *auth.Principal, userID int64) (*User, error) {
	allowed, err := auth.Authorize(principal.Role, auth.PermUserReadAny, nil)
	if err != nil {
		return nil, internal.NewInternalError("authorization check failed", err)
	}
	if !allowed {
		return nil, internal.ErrAccessDenied
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

// AdminUpdate mutates role and account state. Requires user:update:any.
func (s *Service) AdminUpdate(principal *auth.Principal, userID int64, dto AdminUpdateUserDTO) (*User, error) {
	allowed, err := auth.Authorize(principal.Role, auth.PermUserUpdateAny, nil)
	if err != nil {
		return nil, internal.NewInternalError("authorization check failed", err)
	}
	if !allowed {
		return nil, internal.ErrAccessDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}

	if dto.Role != nil {
		role, _ := auth.ParseRole(*dto.Role)
		u.Role = role
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to update user", err)
	}

	s.logger.Info("user updated by admin", "user_id", userID, "admin_id", principal.ID)
	return u, nil
}

// Delete removes an account. Accounts that authored content are deactivated
// instead, keeping articles and comments attributable.
func (s *Service) Delete(principal *auth.Principal, userID int64) error {
	allowed, err := auth.Authorize(principal.Role, auth.PermUserDeleteAny, nil)
	if err != nil {
		return internal.NewInternalError("authorization check failed", err)
	}
	if !allowed {
		return internal.ErrAccessDenied
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return internal.ErrUserNotFound
	}

	hasContent, err := s.repo.HasAuthoredContent(userID)
	if err != nil {
		return internal.NewInternalError("failed to check user content", err)
	}

	if hasContent {
		u.IsActive = false
		if err := s.repo.Update(u); err != nil {
			return internal.NewInternalError("failed to deactivate user", err)
		}
		s.logger.Info("user deactivated instead of deleted", "user_id", userID, "admin_id", principal.ID)
		return nil
	}

	if err := s.repo.Delete(userID); err != nil {
		return internal.NewInternalError("failed to delete user", err)
	}
	s.logger.Info("user deleted", "user_id", userID, "admin_id", principal.ID)
	return nil
}
