package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var clearData bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			tables := []string{"notifications", "comment_likes", "comments", "article_likes", "articles", "refresh_tokens", "users"}
			for _, table := range tables {
				if _, err := db.Exec("DELETE FROM " + table); err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUsers := []struct {
			Username string
			Email    string
			Role     string
			Bio      string
		}{
			{"admin", "admin@blog.local", "ADMIN", "Platform administrator"},
			{"eddie_editor", "editor@blog.local", "EDITOR", "Keeps the front page tidy"},
			{"anna_author", "author@blog.local", "AUTHOR", "Writes about distributed systems"},
			{"casual_reader", "reader@blog.local", "READER", ""},
		}

		for _, u := range seedUsers {
			var exists int
			if err := db.QueryRow("SELECT 1 FROM users WHERE email = $1", u.Email).Scan(&exists); err == nil {
				fmt.Printf("user %s already exists, skipping\n", u.Email)
				continue
			}
			_, err := db.Exec(
				`INSERT INTO users (username, email, password_hash, role, bio, is_active, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, true, now(), now())`,
				u.Username, u.Email, string(hash), u.Role, u.Bio,
			)
			if err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Printf("Seeded %s user: %s\n", u.Role, u.Email)
		}

		var authorID int64
		if err := db.QueryRow("SELECT id FROM users WHERE email = $1", "author@blog.local").Scan(&authorID); err != nil {
			log.Fatalf("failed to lookup author id: %v", err)
		}

		var articleExists int
		if err := db.QueryRow("SELECT 1 FROM articles WHERE slug = $1", "welcome-to-the-platform").Scan(&articleExists); err != nil {
			_, err := db.Exec(
				`INSERT INTO articles (title, slug, content, excerpt, status, author_id, published_at, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, 'PUBLISHED', $5, now(), now(), now())`,
				"Welcome to the Platform",
				"welcome-to-the-platform",
				"This is the first article on the platform. Log in as author@blog.local to write your own.",
				"A short tour of the platform.",
				authorID,
			)
			if err != nil {
				log.Fatalf("failed to insert sample article: %v", err)
			}
			fmt.Println("Seeded sample article: welcome-to-the-platform")
		}

		fmt.Println("Seeding complete. All accounts use password:", password)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}
