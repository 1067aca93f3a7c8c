package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	internal "github.com/fathurrohman/blog-platform/internal"
	"github.com/fathurrohman/blog-platform/internal/article"
	"github.com/fathurrohman/blog-platform/internal/auth"
	"github.com/fathurrohman/blog-platform/internal/comment"
	"github.com/fathurrohman/blog-platform/internal/notification"
	"github.com/fathurrohman/blog-platform/internal/realtime"
	"github.com/fathurrohman/blog-platform/internal/transport/middleware"
	"github.com/fathurrohman/blog-platform/internal/transport/swagger"
	"github.com/fathurrohman/blog-platform/internal/user"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth         *auth.Handler
	Authorizer   *auth.Authorizer
	User         *user.Handler
	Article      *article.Handler
	Comment      *comment.Handler
	Notification *notification.Handler
	Stream       *realtime.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, rateCfg internal.RateLimitConfig, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	if rateCfg.Enabled {
		globalLimiter := middleware.NewRateLimiter(float64(rateCfg.PerSecond), rateCfg.Burst)
		router.Use(globalLimiter.Middleware)
	}

	commentLimiter := middleware.NewCommentRateLimiter(float64(rateCfg.CommentPerMin), rateCfg.CommentBurst)

	// Serve the OpenAPI spec at root, outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/register", h.Auth.Register)
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh-token", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
			sr.Group(func(ar chi.Router) {
				ar.Use(h.Auth.AuthMiddleware)
				ar.Get("/profile", h.Auth.Profile)
			})
		})

		// Public reads: a bearer token widens visibility but is optional.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.OptionalAuth)
			pr.Get("/articles", h.Article.List)
			pr.Get("/articles/{slug}", h.Article.GetBySlug)
			pr.Get("/articles/{id:[0-9]+}/comments", h.Comment.ListByArticle)
			pr.Get("/comments/{commentID:[0-9]+}", h.Comment.Get)
			pr.Get("/users/{id:[0-9]+}/profile", h.User.PublicProfile)
		})

		// SSE endpoint authenticates itself: EventSource cannot send
		// headers, so the token arrives as a query parameter.
		r.Get("/stream", h.Stream.Stream)

		// Everything below requires a valid access token.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/articles", func(ar chi.Router) {
				ar.Post("/", h.Article.Create)
				ar.Put("/{id:[0-9]+}", h.Article.Update)
				ar.Delete("/{id:[0-9]+}", h.Article.Delete)
				ar.Post("/{id:[0-9]+}/like", h.Article.ToggleLike)
				ar.With(commentLimiter.Middleware).Post("/{id:[0-9]+}/comments", h.Comment.Create)
			})

			pr.Route("/comments", func(cr chi.Router) {
				cr.Put("/{commentID:[0-9]+}", h.Comment.Update)
				cr.Delete("/{commentID:[0-9]+}", h.Comment.Delete)
				cr.Post("/{commentID:[0-9]+}/like", h.Comment.ToggleLike)
			})

			pr.Route("/notifications", func(nr chi.Router) {
				nr.Use(h.Authorizer.RequirePermission(auth.PermNotificationRead))
				nr.Get("/", h.Notification.List)
				nr.Get("/unread-count", h.Notification.UnreadCount)
				nr.Patch("/read-all", h.Notification.MarkAllRead)
				nr.Patch("/{id:[0-9]+}/read", h.Notification.MarkRead)
				nr.Delete("/{id:[0-9]+}", h.Notification.Delete)
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/me", h.User.Me)
				ur.Put("/me", h.User.UpdateMe)

				ur.With(h.Authorizer.RequirePermission(auth.PermUserReadAny)).Get("/", h.User.List)
				ur.With(h.Authorizer.RequirePermission(auth.PermUserReadAny)).Get("/{id:[0-9]+}", h.User.Get)
				ur.With(h.Authorizer.RequirePermission(auth.PermUserUpdateAny)).Put("/{id:[0-9]+}", h.User.Update)
				ur.With(h.Authorizer.RequirePermission(auth.PermUserDeleteAny)).Delete("/{id:[0-9]+}", h.User.Delete)
			})

			pr.Post("/stream/join", h.Stream.JoinArticle)
			pr.Post("/stream/leave", h.Stream.LeaveArticle)
		})
	})
}
