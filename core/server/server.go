package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/liyxianren/mmyq/core/cache"
	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/database"
	"github.com/liyxianren/mmyq/core/logger"
	"github.com/liyxianren/mmyq/core/middleware"
	"github.com/liyxianren/mmyq/core/queue"
	"github.com/liyxianren/mmyq/core/storage"
	"github.com/liyxianren/mmyq/modules/admin"
	"github.com/liyxianren/mmyq/modules/auth"
	"github.com/liyxianren/mmyq/modules/cleanup"
	"github.com/liyxianren/mmyq/modules/venue"
)

// Run starts the API server and, when enabled, the background worker. It
// blocks until SIGINT or SIGTERM and then shuts everything down in order.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db, cfg); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	tokens, err := cache.NewTokenCache(cfg.Redis)
	if err != nil {
		return fmt.Errorf("init token cache: %w", err)
	}
	defer tokens.Close()

	store, err := storage.NewObjectStorage(cfg.Upload)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	var worker *queue.Worker
	if cfg.Cleanup.WorkerEnabled {
		worker = queue.NewWorker(cfg.Redis)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORS())

	if cfg.Upload.Driver == "local" || cfg.Upload.Driver == "" {
		e.Static("/uploads", cfg.Upload.LocalDir)
	}

	mw := middleware.New(tokens)

	authSvc := auth.Init(e, db, mw, tokens, cfg.Venue)
	venueSvc := venue.Init(e, db, mw, store, cfg)
	cleanupSvc, err := cleanup.Init(db, store, cfg, worker)
	if err != nil {
		return fmt.Errorf("init cleanup: %w", err)
	}
	admin.Init(e, mw, authSvc, venueSvc, cleanupSvc, cfg.Venue)

	if worker != nil {
		if err := worker.Start(); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
		defer worker.Shutdown()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.Info("Server:Run", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Run:Error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server:Shutdown")
	return nil
}
