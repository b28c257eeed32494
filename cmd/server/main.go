package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	site "checkerboard"
	"checkerboard/internal/game"
	"checkerboard/internal/game/checkerboard"
	"checkerboard/internal/logx"
	"checkerboard/internal/server"
	"checkerboard/internal/session"
	"checkerboard/internal/storage"
)

func main() {
	var (
		addr     = flag.String("addr", ":8080", "listen address")
		dbPath   = flag.String("db", "checkerboard.db", "sqlite database path")
		logLevel = flag.String("log-level", "info", "log level (debug, info, warn, error)")
		cleanup  = flag.Duration("cleanup-every", time.Minute, "how often stale sessions are swept")
		maxAge   = flag.Duration("max-age", time.Hour, "age after which finished sessions are removed")
	)
	flag.Parse()

	if p := os.Getenv("PORT"); p != "" {
		*addr = ":" + p
	}
	if p := os.Getenv("DB_PATH"); p != "" {
		*dbPath = p
	}
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		*logLevel = l
	}

	logger := logx.NewLogger(*logLevel)

	store, err := storage.New(*dbPath)
	if err != nil {
		logger.Fatal().Err(err).Str("db", *dbPath).Msg("open database")
	}
	defer store.Close()

	registry := game.NewRegistry()
	checkerboard.RegisterAll(registry)
	logger.Info().Int("variants", len(registry.List())).Msg("variants registered")

	mgr := session.NewManager(registry, store, logger)
	if err := mgr.Restore(); err != nil {
		logger.Warn().Err(err).Msg("restore sessions")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go mgr.CleanupLoop(ctx.Done(), *cleanup, *maxAge)

	webFS, err := fs.Sub(site.WebFS, "web")
	if err != nil {
		logger.Fatal().Err(err).Msg("web assets")
	}

	// No WriteTimeout: it would cut off long-lived websocket connections.
	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.New(registry, mgr, webFS, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
