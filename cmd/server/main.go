package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/welldanyogia/webrana-support-assistant/internal/api"
	"github.com/welldanyogia/webrana-support-assistant/internal/api/handlers"
	"github.com/welldanyogia/webrana-support-assistant/internal/api/middleware"
	"github.com/welldanyogia/webrana-support-assistant/internal/classifier"
	"github.com/welldanyogia/webrana-support-assistant/internal/composer"
	"github.com/welldanyogia/webrana-support-assistant/internal/config"
	"github.com/welldanyogia/webrana-support-assistant/internal/database"
	"github.com/welldanyogia/webrana-support-assistant/internal/dispatch"
	"github.com/welldanyogia/webrana-support-assistant/internal/llm"
	"github.com/welldanyogia/webrana-support-assistant/internal/logger"
	"github.com/welldanyogia/webrana-support-assistant/internal/mailbox"
	"github.com/welldanyogia/webrana-support-assistant/internal/pipeline"
	"github.com/welldanyogia/webrana-support-assistant/internal/repository"
	"github.com/welldanyogia/webrana-support-assistant/internal/websocket"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(log)
	security := logger.NewSecurityLogger(log)

	log.Info("Starting support assistant...", slog.String("env", cfg.AppEnv))
	cfg.LogConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store
	db, err := database.Connect(cfg.DatabaseURL, database.Options{
		Production: cfg.IsProduction(),
		Logger:     log,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error("failed to close database", slog.Any("error", err))
		}
	}()
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	messageRepo := repository.NewMessageRepository(db)
	knowledgeRepo := repository.NewKnowledgeRepository(db)

	// Model backend. Both branches stay on their deterministic paths when
	// the provider is disabled.
	var (
		priorityModel classifier.PriorityModel
		generator     llm.Generator
	)
	client, err := llm.New(cfg.LLM, log)
	switch {
	case errors.Is(err, llm.ErrDisabled):
		log.Warn("LLM provider disabled, using keyword priority and template drafts")
	case err != nil:
		return fmt.Errorf("init llm: %w", err)
	default:
		priorityModel = client
		generator = client
	}

	classify := classifier.New(priorityModel, cfg.LLM.ClassifyTimeout, log)
	compose := composer.New(generator, knowledgeRepo, composer.Options{
		GenerateTimeout: cfg.LLM.GenerateTimeout,
		MaxTokens:       cfg.LLM.MaxTokens,
		Temperature:     cfg.LLM.Temperature,
	}, log)

	connector := mailbox.NewConnector(mailbox.NewOpener(cfg.IMAP), log)
	dispatcher := dispatch.New(messageRepo, dispatch.NewSMTPTransport(cfg.SMTP, log), log)

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	criteria := mailbox.Criteria{
		Since:      time.Duration(cfg.IMAP.SinceDays) * 24 * time.Hour,
		Keywords:   cfg.IMAP.Keywords,
		UnseenOnly: true,
		Limit:      cfg.IMAP.FetchLimit,
	}
	p := pipeline.New(pipeline.Deps{
		Fetcher:    connector,
		Classifier: classify,
		Composer:   compose,
		Store:      messageRepo,
		Dispatcher: dispatcher,
		Events:     hub,
	}, pipeline.Options{
		Criteria:      criteria,
		Workers:       cfg.Pipeline.Workers,
		CycleDeadline: cfg.Pipeline.CycleDeadline,
		AutoDispatch:  cfg.Pipeline.AutoDispatch,
	}, log)
	service := pipeline.NewService(p, messageRepo, knowledgeRepo, dispatcher, hub, log)

	// A nil *Scheduler must not reach the router as a non-nil interface.
	var schedulerControl handlers.SchedulerControl
	var scheduler *pipeline.Scheduler
	if cfg.Pipeline.SchedulerEnabled {
		scheduler = pipeline.NewScheduler(p, pipeline.SchedulerConfig{
			Interval:   cfg.Pipeline.PollInterval,
			RunOnStart: true,
		}, log)
		scheduler.Start()
		schedulerControl = scheduler
	} else {
		log.Info("Ingestion scheduler disabled, cycles run only on request")
	}

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRequests), cfg.RateLimitBurst)
	go limiter.RunCleanup(ctx, time.Minute)

	origins := websocket.ParseOrigins(cfg.AllowedOrigins)
	e := api.NewRouter(&api.RouterConfig{
		Messages:  service,
		Knowledge: service,
		Scheduler: schedulerControl,
		Database: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
		Hub:            hub,
		Upgrader:       websocket.NewSecureUpgrader(origins, security),
		Logger:         log,
		APIKey:         cfg.APIKey,
		AllowedOrigins: origins,
		Production:     cfg.IsProduction(),
		RateLimiter:    limiter,
	})

	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		log.Info("HTTP server listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			log.Error("HTTP server failed", slog.Any("error", err))
		}
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", slog.Any("error", err))
	}

	log.Info("Server stopped")
	return nil
}
