package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toledos-acai/api/internal/cart"
	"github.com/toledos-acai/api/internal/config"
	"github.com/toledos-acai/api/internal/repository"
	"github.com/toledos-acai/api/internal/router"
	"github.com/toledos-acai/api/internal/ws"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database initialization error", zap.Error(err))
	}
	defer pool.Close()

	queries := repository.New(pool)

	// Carts live in files when CART_DIR is set, otherwise in memory.
	var storage cart.Storage
	if cfg.CartDir != "" {
		storage, err = cart.NewFileStorage(cfg.CartDir)
		if err != nil {
			logger.Fatal("cart storage error", zap.Error(err))
		}
	} else {
		storage = cart.NewMemoryStorage()
	}

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, queries, pool, storage, hub, logger)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown on signal or failure in another goroutine
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("application terminated with error", zap.Error(err))
	}
}
