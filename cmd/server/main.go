package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sapliy/teamdesk/internal/api"
	"github.com/sapliy/teamdesk/internal/backup"
	"github.com/sapliy/teamdesk/internal/config"
	"github.com/sapliy/teamdesk/internal/directory"
	"github.com/sapliy/teamdesk/internal/mail"
	"github.com/sapliy/teamdesk/internal/notify"
	"github.com/sapliy/teamdesk/internal/report"
	"github.com/sapliy/teamdesk/internal/store"
	"github.com/sapliy/teamdesk/pkg/observability"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	log := observability.NewLogger("teamdesk")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	kv := store.NewFileStore(cfg.Storage.DataFile)
	if err := kv.Load(); err != nil {
		log.Error("failed to load data file", "path", cfg.Storage.DataFile, "error", err)
		os.Exit(1)
	}

	// Redis is optional. With it, the same-day report guard holds across
	// replicas; without it, the in-process guard still holds.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unreachable, falling back to local send guard", "addr", cfg.Redis.Addr, "error", err)
		}
	}

	dir := directory.NewSeeded()
	settings, err := mail.NewSettingsStore(kv)
	if err != nil {
		log.Error("failed to load email settings", "error", err)
		os.Exit(1)
	}
	mailer := mail.NewClient(log.Logger)
	center, err := notify.NewCenter(kv, log.Logger)
	if err != nil {
		log.Error("failed to load notifications", "error", err)
		os.Exit(1)
	}
	runner, err := report.NewRunner(kv, settings, mailer, center, dir, rdb, log.Logger)
	if err != nil {
		log.Error("failed to load report schedule", "error", err)
		os.Exit(1)
	}
	backups := backup.NewManager(kv, dir, cfg.Storage.BackupDir, log.Logger)

	srv := api.NewServer(kv, dir, settings, mailer, center, runner, backups, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runner.Run(ctx)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv,
	}
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
