package article

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	internal "github.com/fathurrohman/blog-platform/internal"
	"github.com/fathurrohman/blog-platform/internal/auth"
	"github.com/fathurrohman/blog-platform/internal/core/events"
)

func TestArticle(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Article Module Suite")
}

type mockRepository struct {
	articles map[int64]*Article
	likes    map[int64]map[int64]bool
	nextID   int64
	failWith error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		articles: map[int64]*Article{},
		likes:    map[int64]map[int64]bool{},
		nextID:   0,
	}
}

func (m *mockRepository) seed(a *Article) *Article {
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	m.articles[a.ID] = a
	return a
}

func (m *mockRepository) Create(a *Article) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.seed(a)
	return nil
}

func (m *mockRepository) GetByID(articleID int64) (*Article, error) {
	if a, ok := m.articles[articleID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, errors.New("not found")
}

func (m *mockRepository) GetBySlug(slug string) (*Article, error) {
	for _, a := range m.articles {
		if a.Slug == slug {
			cp := *a
			return &cp, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockRepository) List(query ListQuery) ([]Article, int64, error) {
	var out []Article
	for _, a := range m.articles {
		if query.Status != "" && string(a.Status) != query.Status {
			continue
		}
		if query.AuthorID != 0 && a.AuthorID != query.AuthorID {
			continue
		}
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (m *mockRepository) Update(a *Article) error {
	if m.failWith != nil {
		return m.failWith
	}
	cp := *a
	m.articles[a.ID] = &cp
	return nil
}

func (m *mockRepository) Delete(articleID int64) error {
	delete(m.articles, articleID)
	return nil
}

func (m *mockRepository) SlugExists(slug string) (bool, error) {
	for _, a := range m.articles {
		if a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) IncrementViews(articleID int64) error {
	if a, ok := m.articles[articleID]; ok {
		a.ViewCount++
	}
	return nil
}

func (m *mockRepository) ToggleLike(articleID, userID int64) (bool, int64, error) {
	if m.likes[articleID] == nil {
		m.likes[articleID] = map[int64]bool{}
	}
	if m.likes[articleID][userID] {
		delete(m.likes[articleID], userID)
	} else {
		m.likes[articleID][userID] = true
	}
	return m.likes[articleID][userID], int64(len(m.likes[articleID])), nil
}

func (m *mockRepository) HasLiked(articleID, userID int64) (bool, error) {
	return m.likes[articleID][userID], nil
}

var _ = ginkgo.Describe("ArticleService", func() {
	var (
		service *Service
		repo    *mockRepository
		bus     *events.EventBus
		ctx     context.Context

		adminPrincipal  = &auth.Principal{ID: 1, Username: "admin", Role: auth.RoleAdmin}
		editorPrincipal = &auth.Principal{ID: 2, Username: "editor", Role: auth.RoleEditor}
		authorPrincipal = &auth.Principal{ID: 3, Username: "writer", Role: auth.RoleAuthor}
		otherAuthor     = &auth.Principal{ID: 4, Username: "rival", Role: auth.RoleAuthor}
		readerPrincipal = &auth.Principal{ID: 5, Username: "lurker", Role: auth.RoleReader}
	)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		bus = events.NewEventBus(quiet)
		service = NewService(repo, bus, quiet)
		ctx = context.Background()
	})

	seedPublished := func(authorID int64) *Article {
		now := time.Now()
		return repo.seed(&Article{
			Title:       "Working With Goroutines",
			Slug:        "working-with-goroutines",
			Content:     "body",
			Status:      StatusPublished,
			AuthorID:    authorID,
			PublishedAt: &now,
		})
	}

	seedDraft := func(authorID int64) *Article {
		return repo.seed(&Article{
			Title:    "Unfinished Thoughts",
			Slug:     "unfinished-thoughts",
			Content:  "wip",
			Status:   StatusDraft,
			AuthorID: authorID,
		})
	}

	ginkgo.Describe("Create", func() {
		ginkgo.It("should create a draft owned by the caller", func() {
			a, err := service.Create(ctx, authorPrincipal, CreateArticleDTO{Title: "My First Post", Content: "hello"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(a.Status).To(gomega.Equal(StatusDraft))
			gomega.Expect(a.AuthorID).To(gomega.Equal(authorPrincipal.ID))
			gomega.Expect(a.Slug).To(gomega.Equal("my-first-post"))
			gomega.Expect(a.PublishedAt).To(gomega.BeNil())
		})

		ginkgo.It("should deduplicate colliding slugs", func() {
			_, err := service.Create(ctx, authorPrincipal, CreateArticleDTO{Title: "Same Title", Content: "a"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			second, err := service.Create(ctx, otherAuthor, CreateArticleDTO{Title: "Same Title", Content: "b"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(second.Slug).To(gomega.Equal("same-title-2"))
		})

		ginkgo.It("should stamp published_at when created published", func() {
			a, err := service.Create(ctx, authorPrincipal, CreateArticleDTO{Title: "Live", Content: "x", Status: "PUBLISHED"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(a.PublishedAt).ToNot(gomega.BeNil())
		})

		ginkgo.It("should deny readers", func() {
			_, err := service.Create(ctx, readerPrincipal, CreateArticleDTO{Title: "Nope", Content: "x"})
			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})

		ginkgo.It("should reject an empty title", func() {
			_, err := service.Create(ctx, authorPrincipal, CreateArticleDTO{Title: "  ", Content: "x"})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("GetBySlug", func() {
		ginkgo.It("should serve published articles anonymously and count the view", func() {
			seedPublished(authorPrincipal.ID)

			a, err := service.GetBySlug(nil, "working-with-goroutines")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(a.ViewCount).To(gomega.Equal(int64(1)))
		})

		ginkgo.It("should hide drafts from strangers as not-found", func() {
			seedDraft(authorPrincipal.ID)

			_, err := service.GetBySlug(readerPrincipal, "unfinished-thoughts")
			gomega.Expect(err).To(gomega.Equal(internal.ErrArticleNotFound))
		})

		ginkgo.It("should serve drafts to their author without counting views", func() {
			seedDraft(authorPrincipal.ID)

			a, err := service.GetBySlug(authorPrincipal, "unfinished-thoughts")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(a.ViewCount).To(gomega.Equal(int64(0)))
		})

		ginkgo.It("should serve drafts to editors", func() {
			seedDraft(authorPrincipal.ID)

			_, err := service.GetBySlug(editorPrincipal, "unfinished-thoughts")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.It("should force the published filter for anonymous callers", func() {
			seedPublished(authorPrincipal.ID)
			seedDraft(authorPrincipal.ID)

			articles, total, err := service.List(nil, ListQuery{})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(total).To(gomega.Equal(int64(1)))
			gomega.Expect(articles[0].Status).To(gomega.Equal(StatusPublished))
		})

		ginkgo.It("should deny a reader asking for drafts", func() {
			_, _, err := service.List(readerPrincipal, ListQuery{Status: "DRAFT"})
			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})

		ginkgo.It("should let an author list their own drafts", func() {
			seedDraft(authorPrincipal.ID)

			articles, _, err := service.List(authorPrincipal, ListQuery{Status: "DRAFT", AuthorID: authorPrincipal.ID})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(articles).To(gomega.HaveLen(1))
		})

		ginkgo.It("should deny an author listing someone else's drafts", func() {
			_, _, err := service.List(authorPrincipal, ListQuery{Status: "DRAFT", AuthorID: otherAuthor.ID})
			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("should let the owner edit their article", func() {
			a := seedDraft(authorPrincipal.ID)
			title := "Finished Thoughts"

			updated, err := service.Update(ctx, authorPrincipal, a.ID, UpdateArticleDTO{Title: &title})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Title).To(gomega.Equal(title))
			gomega.Expect(updated.Slug).To(gomega.Equal("finished-thoughts"))
		})

		ginkgo.It("should deny another author", func() {
			a := seedDraft(authorPrincipal.ID)
			content := "hijacked"

			_, err := service.Update(ctx, otherAuthor, a.ID, UpdateArticleDTO{Content: &content})
			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})

		ginkgo.It("should let an editor edit any article", func() {
			a := seedDraft(authorPrincipal.ID)
			content := "polished"

			updated, err := service.Update(ctx, editorPrincipal, a.ID, UpdateArticleDTO{Content: &content})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Content).To(gomega.Equal("polished"))
		})

		ginkgo.It("should publish a draft and emit the published event", func() {
			a := seedDraft(authorPrincipal.ID)

			published := make(chan events.Event, 1)
			bus.Subscribe(events.EventTypeArticlePublished, func(ctx context.Context, e events.Event) error {
				published <- e
				return nil
			})

			status := "PUBLISHED"
			updated, err := service.Update(ctx, authorPrincipal, a.ID, UpdateArticleDTO{Status: &status})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.PublishedAt).ToNot(gomega.BeNil())
			gomega.Eventually(published).Should(gomega.Receive())
		})

		ginkgo.It("should reject an archived draft", func() {
			a := seedDraft(authorPrincipal.ID)

			status := "ARCHIVED"
			_, err := service.Update(ctx, authorPrincipal, a.ID, UpdateArticleDTO{Status: &status})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should keep the original published_at on re-publish", func() {
			a := seedPublished(authorPrincipal.ID)
			firstPublish := *a.PublishedAt

			archived := "ARCHIVED"
			_, err := service.Update(ctx, adminPrincipal, a.ID, UpdateArticleDTO{Status: &archived})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			again := "PUBLISHED"
			updated, err := service.Update(ctx, adminPrincipal, a.ID, UpdateArticleDTO{Status: &again})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.PublishedAt.Equal(firstPublish)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.It("should deny authors deleting even their own article", func() {
			a := seedDraft(authorPrincipal.ID)

			err := service.Delete(authorPrincipal, a.ID)
			gomega.Expect(err).To(gomega.Equal(internal.ErrAccessDenied))
		})

		ginkgo.It("should let admins delete any article", func() {
			a := seedPublished(authorPrincipal.ID)

			gomega.Expect(service.Delete(adminPrincipal, a.ID)).To(gomega.Succeed())
			_, err := repo.GetByID(a.ID)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("ToggleLike", func() {
		ginkgo.It("should like then unlike", func() {
			a := seedPublished(authorPrincipal.ID)

			result, err := service.ToggleLike(ctx, readerPrincipal, a.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result.Liked).To(gomega.BeTrue())
			gomega.Expect(result.LikeCount).To(gomega.Equal(int64(1)))

			result, err = service.ToggleLike(ctx, readerPrincipal, a.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result.Liked).To(gomega.BeFalse())
			gomega.Expect(result.LikeCount).To(gomega.Equal(int64(0)))
		})

		ginkgo.It("should emit the liked event only on like, not unlike", func() {
			a := seedPublished(authorPrincipal.ID)

			likes := make(chan events.Event, 2)
			bus.Subscribe(events.EventTypeArticleLiked, func(ctx context.Context, e events.Event) error {
				likes <- e
				return nil
			})

			_, err := service.ToggleLike(ctx, readerPrincipal, a.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Eventually(likes).Should(gomega.Receive())

			_, err = service.ToggleLike(ctx, readerPrincipal, a.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Consistently(likes, "100ms").ShouldNot(gomega.Receive())
		})

		ginkgo.It("should refuse likes on articles hidden from the caller", func() {
			a := seedDraft(authorPrincipal.ID)

			_, err := service.ToggleLike(ctx, readerPrincipal, a.ID)
			gomega.Expect(err).To(gomega.Equal(internal.ErrArticleNotFound))
		})
	})

	ginkgo.Describe("Slugify", func() {
		ginkgo.It("should normalize punctuation and case", func() {
			gomega.Expect(Slugify("Hello, World! (Again)")).To(gomega.Equal("hello-world-again"))
		})

		ginkgo.It("should fall back for titles with no usable characters", func() {
			gomega.Expect(Slugify("!!!")).To(gomega.Equal("untitled"))
		})
	})
})
