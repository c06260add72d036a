package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"weread_syncer/internal/config"
	"weread_syncer/internal/publisher"
	"weread_syncer/internal/scheduler"
	"weread_syncer/internal/service"
	"weread_syncer/internal/source/weread"
	"weread_syncer/internal/storage/notion"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	syncAll := flag.Bool("all", false, "sync every book, ignoring the finished-book skip")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if *syncAll {
		cfg.Sync.ForceAll = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cookie := cfg.WeRead.Cookie
	if cfg.WeRead.CookieCloud.Enabled() {
		cookie, err = weread.FetchCloudCookie(ctx,
			cfg.WeRead.CookieCloud.URL,
			cfg.WeRead.CookieCloud.ID,
			cfg.WeRead.CookieCloud.Password,
			cfg.WeRead.Timeout,
		)
		if err != nil {
			logger.Error("failed to fetch cookie from cookiecloud", "error", err)
			os.Exit(1)
		}
		logger.Info("fetched cookie from cookiecloud")
	}

	source, err := weread.New(weread.Config{
		Cookie:  cookie,
		Timeout: cfg.WeRead.Timeout,
		Retry: weread.RetryPolicy{
			MaxAttempts: cfg.WeRead.Retry.MaxAttempts,
			Wait:        cfg.WeRead.Retry.Wait,
		},
	}, logger)
	if err != nil {
		logger.Error("failed to create source client", "error", err)
		os.Exit(1)
	}

	if err := source.Handshake(ctx); err != nil {
		logger.Error("failed to establish session", "error", err)
		os.Exit(1)
	}

	client := notion.NewClient(notion.Config{
		Token:   cfg.Notion.Token,
		Timeout: cfg.Notion.Timeout,
		Pacing:  cfg.Notion.Pacing,
	}, logger)

	bookStore := notion.NewBookStore(client, cfg.Notion.BookDatabaseID)
	noteStore := notion.NewNoteStore(client, cfg.Notion.NoteDatabaseID)
	highlightStore := notion.NewHighlightStore(client, cfg.Notion.HighlightDatabaseID)

	// The publisher is optional; without a broker URL events are dropped.
	var pub service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	syncService := service.NewSyncService(
		source,
		bookStore,
		noteStore,
		highlightStore,
		pub,
		logger,
		cfg.Sync,
	)

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, logger)

	logger.Info("starting weread syncer",
		"source", source.Name(),
		"interval", cfg.Sync.Interval,
		"force_all", cfg.Sync.ForceAll,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
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
