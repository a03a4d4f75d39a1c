package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mholloway/daybreak/internal/config"
	"github.com/mholloway/daybreak/internal/database"
	"github.com/mholloway/daybreak/internal/janitor"
	"github.com/mholloway/daybreak/internal/logging"
	"github.com/mholloway/daybreak/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("DAYBREAK_CONFIG"))
	if err != nil {
		logging.Setup("info").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, logger)

	jan := janitor.New(srv.ScheduleStore(), srv.RateLimiter(), cfg.RetentionDays, logger.With("component", "janitor"))
	if err := jan.Start(); err != nil {
		logger.Error("failed to start janitor", "error", err)
		os.Exit(1)
	}
	defer jan.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("daybreak listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
