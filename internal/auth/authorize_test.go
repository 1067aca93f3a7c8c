package auth

import (
	"errors"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Permissions", func() {
	ginkgo.Describe("HasPermission", func() {
		ginkgo.It("should grant ADMIN every permission in the table", func() {
			for _, perms := range rolePermissions {
				for _, p := range perms {
					gomega.Expect(HasPermission(RoleAdmin, p)).To(gomega.BeTrue(),
						"ADMIN should hold %s", p)
				}
			}
		})

		ginkgo.It("should give READER no article mutation grants", func() {
			gomega.Expect(HasPermission(RoleReader, PermArticleCreate)).To(gomega.BeFalse())
			gomega.Expect(HasPermission(RoleReader, PermArticleUpdateAny)).To(gomega.BeFalse())
			gomega.Expect(HasPermission(RoleReader, PermArticleUpdateOwn)).To(gomega.BeFalse())
			gomega.Expect(HasPermission(RoleReader, PermArticleDeleteOwn)).To(gomega.BeFalse())
		})

		ginkgo.It("should let AUTHOR update own articles but not any", func() {
			gomega.Expect(HasPermission(RoleAuthor, PermArticleUpdateOwn)).To(gomega.BeTrue())
			gomega.Expect(HasPermission(RoleAuthor, PermArticleUpdateAny)).To(gomega.BeFalse())
		})

		ginkgo.It("should let EDITOR update any article but delete none", func() {
			gomega.Expect(HasPermission(RoleEditor, PermArticleUpdateAny)).To(gomega.BeTrue())
			gomega.Expect(HasPermission(RoleEditor, PermArticleDeleteAny)).To(gomega.BeFalse())
			gomega.Expect(HasPermission(RoleEditor, PermArticleDeleteOwn)).To(gomega.BeFalse())
		})

		ginkgo.It("should hold nothing for an unknown role", func() {
			gomega.Expect(HasPermission(Role("SUPERUSER"), PermArticleReadAny)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("OwnVariant", func() {
		ginkgo.It("should map :any to :own", func() {
			own, ok := PermArticleUpdateAny.OwnVariant()
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(own).To(gomega.Equal(PermArticleUpdateOwn))
		})

		ginkgo.It("should have no variant for unscoped permissions", func() {
			_, ok := PermArticleCreate.OwnVariant()
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("should have no variant for :own permissions", func() {
			_, ok := PermArticleUpdateOwn.OwnVariant()
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("ParseRole", func() {
		ginkgo.It("should accept known roles case-insensitively", func() {
			role, ok := ParseRole("editor")
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(role).To(gomega.Equal(RoleEditor))
		})

		ginkgo.It("should reject unknown roles", func() {
			_, ok := ParseRole("root")
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})
})

var _ = ginkgo.Describe("Authorize", func() {
	owner := func() (bool, error) { return true, nil }
	notOwner := func() (bool, error) { return false, nil }

	ginkgo.Context("with a direct grant", func() {
		ginkgo.It("should allow without consulting ownership", func() {
			resolverCalled := false
			allowed, err := Authorize(RoleEditor, PermArticleUpdateAny, func() (bool, error) {
				resolverCalled = true
				return false, nil
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeTrue())
			gomega.Expect(resolverCalled).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("with only the :own variant granted", func() {
		ginkgo.It("should allow the owner", func() {
			allowed, err := Authorize(RoleAuthor, PermArticleUpdateAny, owner)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeTrue())
		})

		ginkgo.It("should deny a non-owner", func() {
			allowed, err := Authorize(RoleAuthor, PermArticleUpdateAny, notOwner)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})

		ginkgo.It("should deny when no resolver is supplied", func() {
			allowed, err := Authorize(RoleAuthor, PermArticleUpdateAny, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})

		ginkgo.It("should surface resolver failures as errors, not denials", func() {
			boom := errors.New("lookup failed")
			allowed, err := Authorize(RoleAuthor, PermArticleUpdateAny, func() (bool, error) {
				return false, boom
			})

			gomega.Expect(err).To(gomega.MatchError(boom))
			gomega.Expect(allowed).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("with neither variant granted", func() {
		ginkgo.It("should deny even the owner", func() {
			allowed, err := Authorize(RoleReader, PermArticleUpdateAny, owner)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
		})

		ginkgo.It("should not call the resolver for unscoped permissions", func() {
			resolverCalled := false
			allowed, err := Authorize(RoleReader, PermArticleCreate, func() (bool, error) {
				resolverCalled = true
				return true, nil
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(allowed).To(gomega.BeFalse())
			gomega.Expect(resolverCalled).To(gomega.BeFalse())
		})
	})
})
