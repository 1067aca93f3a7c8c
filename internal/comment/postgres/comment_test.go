package postgres_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fathurrohman/blog-platform/internal/comment"
	commentPostgres "github.com/fathurrohman/blog-platform/internal/comment/postgres"
)

func TestCommentPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Comment Postgres Suite")
}

const schema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL
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

var _ = Describe("Comment Repository", func() {
	var (
		db   *gorm.DB
		repo *commentPostgres.Repository
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		for _, stmt := range strings.Split(schema, ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			Expect(db.Exec(stmt).Error).NotTo(HaveOccurred())
		}

		Expect(db.Exec(`INSERT INTO users (id, username) VALUES (1, 'anna')`).Error).NotTo(HaveOccurred())
		Expect(db.Exec(`INSERT INTO users (id, username) VALUES (2, 'casual')`).Error).NotTo(HaveOccurred())

		repo = commentPostgres.NewRepository(db)
	})

	create := func(articleID, authorID int64, content string, parentID *int64) *comment.Comment {
		c := &comment.Comment{
			ArticleID:       articleID,
			AuthorID:        authorID,
			ParentCommentID: parentID,
			Content:         content,
		}
		Expect(repo.Create(c)).To(Succeed())
		return c
	}

	Describe("Create and GetByID", func() {
		It("should read back the comment with its author username and like count", func() {
			c := create(1, 1, "first", nil)

			liked, count, err := repo.ToggleLike(c.ID, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(liked).To(BeTrue())
			Expect(count).To(Equal(int64(1)))

			got, err := repo.GetByID(c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AuthorUsername).To(Equal("anna"))
			Expect(got.LikeCount).To(Equal(int64(1)))
		})

		It("should return nil for unknown ids", func() {
			got, err := repo.GetByID(404)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNil())
		})
	})

	Describe("ListByArticle", func() {
		It("should drop soft-deleted comments from the page and the total", func() {
			kept := create(1, 1, "still here", nil)
			doomed := create(1, 2, "to be deleted", nil)
			Expect(repo.SoftDelete(doomed.ID)).To(Succeed())

			comments, total, err := repo.ListByArticle(1, comment.ListQuery{Page: 1, PerPage: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(comments).To(HaveLen(1))
			Expect(comments[0].ID).To(Equal(kept.ID))
		})

		It("should drop replies along with their deleted parent", func() {
			parent := create(1, 1, "parent", nil)
			create(1, 2, "reply", &parent.ID)
			Expect(repo.SoftDelete(parent.ID)).To(Succeed())

			comments, total, err := repo.ListByArticle(1, comment.ListQuery{Page: 1, PerPage: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeZero())
			Expect(comments).To(BeEmpty())
		})

		It("should nest live replies under their parent", func() {
			parent := create(1, 1, "parent", nil)
			create(1, 2, "reply", &parent.ID)

			comments, total, err := repo.ListByArticle(1, comment.ListQuery{Page: 1, PerPage: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(comments).To(HaveLen(1))
			Expect(comments[0].Replies).To(HaveLen(1))
			Expect(comments[0].Replies[0].Content).To(Equal("reply"))
		})
	})

	Describe("ToggleLike", func() {
		It("should unlike on the second toggle", func() {
			c := create(1, 1, "likeable", nil)

			liked, count, err := repo.ToggleLike(c.ID, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(liked).To(BeTrue())
			Expect(count).To(Equal(int64(1)))

			liked, count, err = repo.ToggleLike(c.ID, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(liked).To(BeFalse())
			Expect(count).To(BeZero())
		})
	})
})
