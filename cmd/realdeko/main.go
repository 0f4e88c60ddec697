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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/illumi1717/realdeko-site-backend/internal/agent"
	"github.com/illumi1717/realdeko-site-backend/internal/auth"
	"github.com/illumi1717/realdeko-site-backend/internal/config"
	"github.com/illumi1717/realdeko-site-backend/internal/ingest"
	"github.com/illumi1717/realdeko-site-backend/internal/notify"
	"github.com/illumi1717/realdeko-site-backend/internal/pipeline"
	"github.com/illumi1717/realdeko-site-backend/internal/server"
	"github.com/illumi1717/realdeko-site-backend/internal/storage"
	"github.com/illumi1717/realdeko-site-backend/internal/telemetry"
	"github.com/illumi1717/realdeko-site-backend/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("REALDEKO_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("realdeko starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Connect to database and apply migrations.
	db, err := storage.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Create JWT manager.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Wire the ingestion pipeline. Both the feed source and the LLM agent
	// are required for it; without either, the pipeline endpoints report
	// unavailable but the rest of the API serves normally.
	runner := newRunner(cfg, db, logger)

	// Wire application notification channels.
	sender := newSender(cfg, logger)

	srv := server.New(server.ServerConfig{
		Store:               db,
		JWTMgr:              jwtMgr,
		Runner:              runner,
		Sender:              sender,
		Logger:              logger,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		AdminUsername:       cfg.AdminUsername,
		AdminPasswordHash:   cfg.AdminPasswordArg,
		MediaRoot:           cfg.MediaRoot,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("realdeko shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("realdeko stopped")
	return nil
}

// newRunner wires the Instagram-to-article pipeline, or returns nil when
// the OpenAI or RapidAPI credentials are missing.
func newRunner(cfg config.Config, db *storage.DB, logger *slog.Logger) server.Runner {
	if cfg.OpenAIAPIKey == "" {
		logger.Info("pipeline: disabled (no OPENAI_API_KEY)")
		return nil
	}
	if cfg.InstagramAPIKey == "" {
		logger.Info("pipeline: disabled (no INSTAGRAM_API_KEY)")
		return nil
	}

	client := agent.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	cache := agent.OpenHandleCache(cfg.AgentCachePath, logger)
	proc := agent.NewPipeline(client, client.Model(), cfg.TargetLocales, cache, logger)

	source := ingest.NewRapidAPIClient(cfg.InstagramAPIKey, cfg.InstagramAPIHost, logger)
	embedder := agent.NewOpenAIEmbedder(cfg.OpenAIAPIKey)

	logger.Info("pipeline: enabled",
		"model", cfg.OpenAIModel,
		"locales", cfg.TargetLocales,
		"username", cfg.InstagramUsername,
	)
	return pipeline.NewRunner(db, source, proc, embedder,
		cfg.InstagramUsername, cfg.PipelineBudget, logger)
}

// newSender wires the configured application notification channels.
func newSender(cfg config.Config, logger *slog.Logger) server.Sender {
	var channels []notify.Notifier

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		channels = append(channels, notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		logger.Info("notify: telegram channel enabled")
	}
	if cfg.SMTPHost != "" && cfg.ApplicationInbox != "" {
		channels = append(channels, notify.NewEmailNotifier(notify.EmailConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPassword,
			From: cfg.SMTPFrom,
			To:   cfg.ApplicationInbox,
		}))
		logger.Info("notify: email channel enabled", "inbox", cfg.ApplicationInbox)
	}

	return notify.NewFanout(logger, channels...)
}
