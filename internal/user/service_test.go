package user

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	internal "github.com/fathurrohman/blog-platform/internal"
	"github.com/fathurrohman/blog-platform/internal/auth"
)

func TestUser(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "User Module Suite")
}

type mockRepository struct {
	users       map[int64]*User
	authored    map[int64]bool
	deleted     []int64
	failWith    error
	updateCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users: map[int64]*User{
			1: {ID: 1, Username: "admin", Email: "admin@example.com", Role: auth.RoleAdmin, IsActive: true},
			2: {ID: 2, Username: "writer", Email: "writer@example.com", Role: auth.RoleAuthor, IsActive: true},
			3: {ID: 3, Username: "lurker", Email: "lurker@example.com", Role: auth.RoleReader, IsActive: true},
		},
		authored: map[int64]bool{2: true},
	}
}

func (m *mockRepository) GetByID(userID int64) (*User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if u, ok := m.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, errors.New("not found")
}

func (m *mockRepository) GetByUsername(username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockRepository) List(query ListQuery) ([]User, int64, error) {
	if m.failWith != nil {
		return nil, 0, m.failWith
	}
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (m *mockRepository) Update(u *User) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.updateCalls++
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockRepository) Delete(userID int64) error {
	delete(m.users, userID)
	m.deleted = append(m.deleted, userID)
	return nil
}

func (m *mockRepository) HasAuthoredContent(userID int64) (bool, error) {
	return m.authored[userID], nil
}

var _ = ginkgo.Describe("UserService", func() {
	var (
		service *Service
		repo    *mockRepository

		adminPrincipal  = &auth.Principal{ID: 1, Username: "admin", Role: auth.RoleAdmin}
		authorPrincipal = &auth.Principal{ID: 2, Username: "writer", Role: auth.RoleAuthor}
		readerPrincipal = &auth.Principal{ID: 3, Username: "lurker", Role: auth.RoleReader}
	)

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		service = NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	ginkgo.Describe("UpdateProfile", func() {
		ginkgo.It("should apply partial edits", func() {
			bio := "writes about databases"
			u, err := service.UpdateProfile(authorPrincipal, UpdateProfileDTO{Bio: &bio})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(u.Bio).To(gomega.Equal(bio))
			gomega.Expect(u.Username).To(gomega.Equal("writer"))
		})

		ginkgo.It("should reject a taken username", func() {
			taken := "admin"
			_, err := service.UpdateProfile(authorPrincipal, UpdateProfileDTO{Username: &taken})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeUsernameTaken))
		})

		ginkgo.It("should allow keeping one's own username", func() {
			same := "writer"
			_, err := service.UpdateProfile(authorPrincipal, UpdateProfileDTO{Username: &same})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.It("should allow roles holding user:read:any", func() {
			users, total, err := service.List(adminPrincipal, ListQuery{})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(total).To(gomega.Equal(int64(3)))
			gomega.Expect(users).To(gomega.HaveLen(3))
		})

		ginkgo.It("should deny readers", func() {
			_, _, err := service.List(readerPrincipal, ListQuery{})
			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})

		ginkgo.It("should deny authors", func() {
			_, _, err := service.List(authorPrincipal, ListQuery{})
			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})
	})

	ginkgo.Describe("AdminUpdate", func() {
		ginkgo.It("should let an admin change role and state", func() {
			role := "EDITOR"
			inactive := false
			u, err := service.AdminUpdate(adminPrincipal, 3, AdminUpdateUserDTO{Role: &role, IsActive: &inactive})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(u.Role).To(gomega.Equal(auth.RoleEditor))
			gomega.Expect(u.IsActive).To(gomega.BeFalse())
		})

		ginkgo.It("should reject an unknown role", func() {
			role := "OVERLORD"
			_, err := service.AdminUpdate(adminPrincipal, 3, AdminUpdateUserDTO{Role: &role})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should deny non-admins", func() {
			role := "ADMIN"
			_, err := service.AdminUpdate(authorPrincipal, 3, AdminUpdateUserDTO{Role: &role})
			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.It("should hard-delete an account with no content", func() {
			err := service.Delete(adminPrincipal, 3)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(repo.deleted).To(gomega.ContainElement(int64(3)))
			gomega.Expect(repo.users).ToNot(gomega.HaveKey(int64(3)))
		})

		ginkgo.It("should deactivate an account that authored content", func() {
			err := service.Delete(adminPrincipal, 2)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(repo.deleted).To(gomega.BeEmpty())
			gomega.Expect(repo.users[2].IsActive).To(gomega.BeFalse())
		})

		ginkgo.It("should deny non-admins", func() {
			err := service.Delete(authorPrincipal, 3)
			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})
	})
})
