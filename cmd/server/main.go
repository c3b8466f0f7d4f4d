package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/qyliu/paperdeck/internal/api"
	"github.com/qyliu/paperdeck/internal/backend"
	"github.com/qyliu/paperdeck/internal/config"
	"github.com/qyliu/paperdeck/internal/docview"
	"github.com/qyliu/paperdeck/internal/parsing"
	"github.com/qyliu/paperdeck/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Local .env overrides are optional.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Backend client and auth session.
	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	sess := session.New(client, session.NewFileStore(cfg.TokenPath), log)
	client.SetTokenSource(sess)

	if err := sess.Init(ctx); err != nil {
		log.Warn("silent sign-in failed, starting signed out", "error", err)
	}

	// Document views and the parse manager.
	views, err := docview.NewStore(client, cfg.DocCacheSize, log)
	if err != nil {
		log.Error("view store init failed", "error", err)
		os.Exit(1)
	}
	parses := parsing.NewManager(client, log, cfg.ParseTimeout, cfg.ParseTTL)
	parses.Start(ctx)

	srv := api.NewServer(views, parses, sess, client, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		// Flush open views before the backend client goes away.
		views.CloseAll()
		client.Close()
		cancel()
	}()

	log.Info("starting paperdeck", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
