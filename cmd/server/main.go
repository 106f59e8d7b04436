package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"payment-matching-backend/internal/config"
	"payment-matching-backend/internal/logging"
	"payment-matching-backend/internal/models"
	"payment-matching-backend/internal/repository"
	"payment-matching-backend/internal/routes"
	"payment-matching-backend/internal/scheduler"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on system env")
	}

	cfg := config.LoadOrEnv()
	logger := logging.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		return err
	}
	if err := models.Migrate(db); err != nil {
		return err
	}

	reconService := routes.NewService(db, cfg.AutoMatch, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(logging.NewLoggerWithSystem(cfg.Logging, os.Stdout, "http")))
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, reconService, logger)

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.NewScheduler(scheduler.Config{
			Interval:     cfg.Scheduler.Interval,
			WorkerCount:  cfg.Scheduler.Workers,
			QueueSize:    cfg.Scheduler.QueueSize,
			RunOnStartup: cfg.Scheduler.RunOnStartup,
			JobProvider: scheduler.AutoMatchJobs(
				repository.NewBankTransactionRepository(db),
				reconService,
				cfg.Scheduler.UserID,
			),
		}, logging.NewLoggerWithSystem(cfg.Logging, os.Stdout, "scheduler"))
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Shutdown(30 * time.Second)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
