package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pageza/nutrisnap/backend/config"
	"github.com/pageza/nutrisnap/backend/internal/database"
	"github.com/pageza/nutrisnap/backend/internal/flow"
	"github.com/pageza/nutrisnap/backend/internal/gemini"
	"github.com/pageza/nutrisnap/backend/internal/logger"
	"github.com/pageza/nutrisnap/backend/internal/observability"
	"github.com/pageza/nutrisnap/backend/internal/server"
	"github.com/pageza/nutrisnap/backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: cfg.OTelServiceName,
		Environment: string(config.GetEnvironment()),
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("failed to flush traces", "error", err)
		}
	}()

	// Initialize database
	db, err := database.New(cfg, log)
	if err != nil {
		return err
	}
	if err := database.RunMigrations(db); err != nil {
		return err
	}

	redisClient, err := database.NewRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	sealer, err := service.NewSealer(cfg.CredentialKey)
	if err != nil {
		return err
	}

	var avatars service.AvatarStore
	switch s3cfg, err := config.NewS3Config(ctx, cfg); {
	case errors.Is(err, config.ErrS3NotConfigured):
		log.Info("avatar storage disabled: no bucket configured")
	case err != nil:
		log.Warn("avatar storage disabled", "error", err)
	default:
		avatars = service.NewS3AvatarStore(s3cfg)
	}

	// Initialize services
	authService := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, service.NewRedisTokenStore(redisClient))
	profileService := service.NewProfileService(db, sealer, avatars, log.With("component", "profile"))

	model := gemini.NewClient(gemini.WithBaseURL(cfg.GeminiBaseURL), gemini.WithLogger(log.With("component", "gemini")))
	flows := flow.NewService(model, flow.WithModel(cfg.GeminiModel), flow.WithLogger(log.With("component", "flow")))

	srv := server.New(cfg, server.Deps{
		DB:       db,
		Redis:    redisClient,
		Log:      log,
		Auth:     authService,
		Profiles: profileService,
		Flows:    flows,
	})
	return srv.Run(ctx)
}
