// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/undercover/internal/auth"
	"github.com/jason-s-yu/undercover/internal/cache"
	"github.com/jason-s-yu/undercover/internal/config"
	"github.com/jason-s-yu/undercover/internal/database"
	"github.com/jason-s-yu/undercover/internal/game"
	"github.com/jason-s-yu/undercover/internal/handlers"
	"github.com/jason-s-yu/undercover/internal/words"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuer, err := auth.NewIssuer(cfg.TokenExpire)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// action log (optional)
	var recorder game.Recorder
	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()
	var queueGroup errgroup.Group
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		queue := cache.NewActionQueue(rdb, cfg.HistorianQueue, 0, logger)
		queueGroup.Go(func() error {
			queue.Run(queueCtx)
			return nil
		})
		recorder = queue
		logger.WithField("queue", cfg.HistorianQueue).Info("action log enabled")
	}

	dir := game.NewDirectory(game.DirectoryOptions{
		Bank:             words.DefaultBank(cfg.DefaultLanguage),
		DefaultLanguage:  cfg.DefaultLanguage,
		Recorder:         recorder,
		Logger:           logger,
		SubscriberBuffer: cfg.SubscriberBuffer,
		IdleTimeout:      cfg.SessionIdleTimeout,
		SweepInterval:    cfg.SessionSweepInterval,
	})
	g.Go(func() error {
		dir.Run(gctx)
		return nil
	})

	srv := handlers.NewServer(dir, issuer, logger)
	srv.PublicURL = cfg.PublicURL
	if cfg.IsProduction() {
		srv.AllowedOrigins = cfg.AllowedOrigins
	}

	// game history (optional)
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("database: %v", err)
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			logger.Fatalf("database: %v", err)
		}
		srv.History = database.NewHistoryStore(pool)
		logger.Info("game history enabled")
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Infof("Running on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("http shutdown")
		}
		dir.Shutdown()
		return nil
	})

	err = g.Wait()
	// sessions are closed; drain what they recorded
	stopQueue()
	queueGroup.Wait()
	if err != nil {
		logger.Fatal(err)
	}
	logger.Info("shutdown complete")
}
