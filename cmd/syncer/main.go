package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"mediasync/internal/config"
	"mediasync/internal/domain"
	"mediasync/internal/scheduler"
	"mediasync/internal/service"
	"mediasync/internal/source/youtube"
	filestore "mediasync/internal/storage/file"
	"mediasync/internal/storage/postgres"
	"mediasync/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	channelSlug := flag.String("channel", "", "process only this channel slug")
	once := flag.Bool("once", false, "run a single sync and exit")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	channels := selectChannels(cfg.Channels, *channelSlug)
	if len(channels) == 0 {
		logger.Error("no channels to process", "filter", *channelSlug)
		os.Exit(1)
	}

	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var sink service.Telemetry
	if cfg.Telemetry.URL != "" {
		pub, err := telemetry.NewPublisher(telemetry.Config{
			URL:        cfg.Telemetry.URL,
			Exchange:   cfg.Telemetry.Exchange,
			RoutingKey: cfg.Telemetry.RoutingKey,
			QueueName:  cfg.Telemetry.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect telemetry sink", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		sink = pub
	}

	source := youtube.New(youtube.Config{
		BaseURL:        cfg.API.BaseURL,
		APIKey:         cfg.API.Key,
		Timeout:        cfg.API.Timeout,
		MaxAttempts:    cfg.API.Retry.MaxAttempts,
		InitialBackoff: cfg.API.Retry.InitialBackoff,
		MaxBackoff:     cfg.API.Retry.MaxBackoff,
	}, logger)

	syncService := service.NewSyncService(source, store, sink, channels, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting media syncer",
		"backend", cfg.Store.Backend,
		"channels", len(channels),
		"once", *once,
	)

	if *once {
		if _, err := syncService.Run(ctx); err != nil {
			logger.Error("sync run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, logger)
	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config, logger *slog.Logger) (service.SnapshotStore, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		return filestore.NewStore(cfg.Store.File.Dir, logger), func() {}, nil

	case config.BackendPostgres:
		if err := postgres.RunMigrations(cfg.Store.Database.URL()); err != nil {
			return nil, nil, err
		}

		db, err := sqlx.Connect("postgres", cfg.Store.Database.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("connected to database")
		return postgres.NewStore(db, logger), func() { db.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func selectChannels(channels []domain.Channel, slug string) []domain.Channel {
	if slug == "" {
		return channels
	}
	var selected []domain.Channel
	for _, ch := range channels {
		if ch.Slug == slug {
			selected = append(selected, ch)
		}
	}
	return selected
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
