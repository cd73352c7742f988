package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"jan-server/services/photo-api/internal/config"
	domain "jan-server/services/photo-api/internal/domain/photo"
	"jan-server/services/photo-api/internal/infrastructure/logger"
	"jan-server/services/photo-api/internal/infrastructure/observability"
	"jan-server/services/photo-api/internal/interfaces/httpserver"
)

// @title Photo API
// @version 1.0
// @description Photo ingestion service: upload, normalize, store and serve images
// @BasePath /
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	photoRepository, closeRepository, err := provideRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize metadata store")
	}
	defer closeRepository()

	blobStore, err := provideStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	stagingArea, err := provideStagingArea(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize staging area")
	}

	photoService := domain.NewService(
		cfg,
		photoRepository,
		blobStore,
		provideNormalizer(cfg),
		stagingArea,
		provideURLResolver(cfg),
		log,
	)

	httpServer := httpserver.New(cfg, log, photoService, stagingArea)
	app := NewApplication(httpServer, log)

	log.Info().
		Str("storage", blobStore.Backend()).
		Str("public_base_url", cfg.PublicBase()).
		Msg("photo-api starting")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
