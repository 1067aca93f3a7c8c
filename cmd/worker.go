package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	authpg "github.com/fathurrohman/blog-platform/internal/auth/postgres"
	"github.com/fathurrohman/blog-platform/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start scheduled maintenance workers such as the refresh token reaper.`,
}

var tokenReaperCmd = &cobra.Command{
	Use:   "token-reaper",
	Short: "Periodically purge expired refresh tokens",
	Long:  `Runs an hourly job that deletes refresh tokens past their expiry so the table does not grow unbounded.`,
	Run: func(cmd *cobra.Command, args []string) {
		startTokenReaper()
	},
}

var reaperSchedule string

func startTokenReaper() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	env := "development"
	if cfg.Logging.Format == "json" {
		env = "production"
	}
	logger.Init(env, cfg.Logging.Level)
	log := logger.L()

	db, err := initDB(cfg.Database)
	if err != nil {
		log.Error("failed to init db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Error("failed to open gorm", "error", err)
		os.Exit(1)
	}

	tokenStore := authpg.NewTokenStore(gormDB)

	reap := func() {
		deleted, err := tokenStore.DeleteExpired(time.Now())
		if err != nil {
			log.Error("token reaper run failed", "error", err)
			return
		}
		log.Info("token reaper run complete", "deleted", deleted)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(reaperSchedule, reap); err != nil {
		log.Error("invalid reaper schedule", "schedule", reaperSchedule, "error", err)
		os.Exit(1)
	}

	// one pass immediately so a restart never leaves stale tokens an hour
	reap()

	scheduler.Start()
	log.Info("token reaper started", "schedule", reaperSchedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("received signal, stopping token reaper", "signal", sig)

	ctx := scheduler.Stop()
	<-ctx.Done()
	log.Info("token reaper stopped")
}

func init() {
	tokenReaperCmd.Flags().StringVar(&reaperSchedule, "schedule", "@hourly", "cron schedule for the reaper job")
	workerCmd.AddCommand(tokenReaperCmd)
}
