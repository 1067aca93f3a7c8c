package article_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fathurrohman/blog-platform/internal/article"
	articlePostgres "github.com/fathurrohman/blog-platform/internal/article/postgres"
	"github.com/fathurrohman/blog-platform/internal/auth"
	"github.com/fathurrohman/blog-platform/internal/core/events"
)

const integrationSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'READER',
	avatar TEXT NOT NULL DEFAULT '',
	bio TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	content TEXT NOT NULL,
	excerpt TEXT NOT NULL DEFAULT '',
	featured_image TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	category TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'DRAFT',
	author_id INTEGER NOT NULL,
	last_modified_by INTEGER NOT NULL DEFAULT 0,
	view_count INTEGER NOT NULL DEFAULT 0,
	published_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE article_likes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	article_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	article_id INTEGER NOT NULL,
	author_id INTEGER NOT NULL,
	parent_comment_id INTEGER,
	content TEXT NOT NULL,
	is_edited BOOLEAN NOT NULL DEFAULT FALSE,
	edited_at DATETIME,
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	deleted_at DATETIME
);
CREATE TABLE comment_likes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	comment_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// withPrincipal injects an already authenticated caller, standing in for the
// JWT middleware.
func withPrincipal(p *auth.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p != nil {
				r = r.WithContext(auth.ContextWithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

var _ = Describe("Article Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *article.Handler
	)

	newRouter := func(p *auth.Principal) *chi.Mux {
		router := chi.NewRouter()
		router.Use(withPrincipal(p))
		router.Get("/articles", handler.List)
		router.Get("/articles/{slug}", handler.GetBySlug)
		router.Post("/articles", handler.Create)
		router.Put("/articles/{id:[0-9]+}", handler.Update)
		router.Delete("/articles/{id:[0-9]+}", handler.Delete)
		router.Post("/articles/{id:[0-9]+}/like", handler.ToggleLike)
		return router
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		for _, stmt := range strings.Split(integrationSchema, ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			Expect(db.Exec(stmt).Error).NotTo(HaveOccurred())
		}

		Expect(db.Exec(
			`INSERT INTO users (id, username, email, role) VALUES (1, 'anna', 'anna@example.com', 'AUTHOR')`,
		).Error).NotTo(HaveOccurred())
		Expect(db.Exec(
			`INSERT INTO users (id, username, email, role) VALUES (2, 'casual', 'casual@example.com', 'READER')`,
		).Error).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
		repo := articlePostgres.NewRepository(db)
		service := article.NewService(repo, events.NewEventBus(slogger), slogger)
		handler = article.NewHandler(service)
	})

	author := &auth.Principal{ID: 1, Username: "anna", Role: auth.RoleAuthor}
	reader := &auth.Principal{ID: 2, Username: "casual", Role: auth.RoleReader}

	createArticle := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/articles", strings.NewReader(body))
		w := httptest.NewRecorder()
		newRouter(author).ServeHTTP(w, req)
		return w
	}

	It("should create an article and read it back by slug", func() {
		w := createArticle(`{"title":"Hello Gophers","content":"body text","status":"PUBLISHED"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created struct {
			Data article.Article `json:"data"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Data.Slug).To(Equal("hello-gophers"))
		Expect(created.Data.AuthorID).To(Equal(int64(1)))

		req := httptest.NewRequest(http.MethodGet, "/articles/hello-gophers", nil)
		w = httptest.NewRecorder()
		newRouter(nil).ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		var fetched struct {
			Data article.Article `json:"data"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&fetched)).To(Succeed())
		Expect(fetched.Data.Title).To(Equal("Hello Gophers"))
		Expect(fetched.Data.AuthorUsername).To(Equal("anna"))
	})

	It("should refuse creation for readers", func() {
		req := httptest.NewRequest(http.MethodPost, "/articles", strings.NewReader(`{"title":"Nope","content":"x"}`))
		w := httptest.NewRecorder()
		newRouter(reader).ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("should hide drafts from anonymous readers but list them for the author", func() {
		w := createArticle(`{"title":"Work In Progress","content":"draft body"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		req := httptest.NewRequest(http.MethodGet, "/articles", nil)
		w = httptest.NewRecorder()
		newRouter(nil).ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).NotTo(ContainSubstring("Work In Progress"))

		req = httptest.NewRequest(http.MethodGet, "/articles?status=DRAFT&author_id=1", nil)
		w = httptest.NewRecorder()
		newRouter(author).ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("Work In Progress"))
	})

	It("should round-trip tags and category and filter lists by them", func() {
		w := createArticle(`{"title":"Go Tips","content":"x","status":"PUBLISHED","tags":["go","testing"],"category":"engineering"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created struct {
			Data article.Article `json:"data"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Data.Tags).To(ConsistOf("go", "testing"))
		Expect(created.Data.Category).To(Equal("engineering"))

		w = createArticle(`{"title":"Sourdough Notes","content":"x","status":"PUBLISHED","category":"food"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		req := httptest.NewRequest(http.MethodGet, "/articles?tag=go", nil)
		w = httptest.NewRecorder()
		newRouter(nil).ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("Go Tips"))
		Expect(w.Body.String()).NotTo(ContainSubstring("Sourdough Notes"))

		req = httptest.NewRequest(http.MethodGet, "/articles?category=food", nil)
		w = httptest.NewRecorder()
		newRouter(nil).ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("Sourdough Notes"))
		Expect(w.Body.String()).NotTo(ContainSubstring("Go Tips"))
	})

	It("should count a like exactly once per toggle", func() {
		w := createArticle(`{"title":"Likeable","content":"x","status":"PUBLISHED"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created struct {
			Data article.Article `json:"data"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		like := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/articles/1/like", nil)
			w := httptest.NewRecorder()
			newRouter(reader).ServeHTTP(w, req)
			return w
		}

		w = like()
		Expect(w.Code).To(Equal(http.StatusOK))
		var result struct {
			Data article.LikeResult `json:"data"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result.Data.Liked).To(BeTrue())
		Expect(result.Data.LikeCount).To(Equal(int64(1)))

		w = like()
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result.Data.Liked).To(BeFalse())
		Expect(result.Data.LikeCount).To(BeZero())
	})

	It("should let only admins delete and cascade the comment tree", func() {
		w := createArticle(`{"title":"Doomed","content":"x","status":"PUBLISHED"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		Expect(db.Exec(`INSERT INTO comments (article_id, author_id, content) VALUES (1, 2, 'first!')`).Error).NotTo(HaveOccurred())
		Expect(db.Exec(`INSERT INTO comment_likes (comment_id, user_id) VALUES (1, 1)`).Error).NotTo(HaveOccurred())

		req := httptest.NewRequest(http.MethodDelete, "/articles/1", nil)
		w = httptest.NewRecorder()
		newRouter(author).ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusForbidden))

		admin := &auth.Principal{ID: 99, Username: "root", Role: auth.RoleAdmin}
		req = httptest.NewRequest(http.MethodDelete, "/articles/1", nil)
		w = httptest.NewRecorder()
		newRouter(admin).ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		var count int64
		Expect(db.Raw(`SELECT COUNT(*) FROM comments`).Scan(&count).Error).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
		Expect(db.Raw(`SELECT COUNT(*) FROM comment_likes`).Scan(&count).Error).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
	})
})
