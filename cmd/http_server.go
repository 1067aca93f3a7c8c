package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	internal "github.com/fathurrohman/blog-platform/internal"
	"github.com/fathurrohman/blog-platform/internal/article"
	articlepg "github.com/fathurrohman/blog-platform/internal/article/postgres"
	"github.com/fathurrohman/blog-platform/internal/auth"
	authpg "github.com/fathurrohman/blog-platform/internal/auth/postgres"
	"github.com/fathurrohman/blog-platform/internal/comment"
	commentpg "github.com/fathurrohman/blog-platform/internal/comment/postgres"
	"github.com/fathurrohman/blog-platform/internal/core/events"
	"github.com/fathurrohman/blog-platform/internal/notification"
	notificationpg "github.com/fathurrohman/blog-platform/internal/notification/postgres"
	"github.com/fathurrohman/blog-platform/internal/realtime"
	"github.com/fathurrohman/blog-platform/internal/transport/rest"
	"github.com/fathurrohman/blog-platform/internal/user"
	userpg "github.com/fathurrohman/blog-platform/internal/user/postgres"
	"github.com/fathurrohman/blog-platform/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		// WriteTimeout would sever long-lived SSE streams, so it stays at
		// the config value only when explicitly set.
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	env := "development"
	if cfg.Logging.Format == "json" {
		env = "production"
	}
	logger.Init(env, cfg.Logging.Level)
	log := logger.L()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides on the already pooled pgx connection
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	eventBus := events.NewEventBus(log)
	authorizer := auth.NewAuthorizer(log)

	sec := cfg.Security
	tokenGen := auth.NewJWTTokenGenerator(
		sec.AccessTokenSecret,
		sec.RefreshTokenSecret,
		sec.AccessTokenDuration,
		sec.RefreshTokenDuration,
		sec.TokenIssuer,
		sec.TokenAudience,
	)
	authService := auth.NewService(
		authpg.NewRepository(gormDB),
		authpg.NewTokenStore(gormDB),
		tokenGen,
		sec.RefreshTokenDuration,
		sec.BCryptCost,
		log,
	)
	authHandler := auth.NewHandler(authService)

	userService := user.NewService(userpg.NewRepository(gormDB), log)
	userHandler := user.NewHandler(userService)

	articleRepo := articlepg.NewRepository(gormDB)
	articleService := article.NewService(articleRepo, eventBus, log)
	articleHandler := article.NewHandler(articleService)

	commentService := comment.NewService(commentpg.NewRepository(gormDB), articleRepo, eventBus, log)
	commentHandler := comment.NewHandler(commentService)

	hub := realtime.NewHub(cfg.Stream.ConnectionBuffer, log)
	streamHandler := realtime.NewHandler(hub, authService)
	realtime.NewEventHandler(hub, log).RegisterHandlers(eventBus)

	notificationService := notification.NewService(notificationpg.NewRepository(gormDB), hub, log)
	notification.NewEventHandler(notificationService, log).RegisterHandlers(eventBus)
	notificationHandler := notification.NewHandler(notificationService)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:         authHandler,
		Authorizer:   authorizer,
		User:         userHandler,
		Article:      articleHandler,
		Comment:      commentHandler,
		Notification: notificationHandler,
		Stream:       streamHandler,
	}, cfg.RateLimit, log)

	return &Dependencies{
		Config: cfg,
		DB:     db,
		Router: router,
		Logger: log,
	}, nil
}

// initDB opens the pgx-backed connection pool used by both sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
