package main

import (
	"context"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"jan-server/services/photo-api/internal/config"
	domain "jan-server/services/photo-api/internal/domain/photo"
	"jan-server/services/photo-api/internal/infrastructure/database"
	"jan-server/services/photo-api/internal/infrastructure/imaging"
	"jan-server/services/photo-api/internal/infrastructure/publicurl"
	repo "jan-server/services/photo-api/internal/infrastructure/repository/photo"
	"jan-server/services/photo-api/internal/infrastructure/staging"
	"jan-server/services/photo-api/internal/infrastructure/storage"
)

// provideStorage creates the appropriate storage backend based on configuration.
func provideStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.BlobStore, error) {
	if cfg.IsS3Storage() {
		s3Storage, err := storage.NewS3Storage(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return s3Storage, nil
	}

	localStorage, err := storage.NewLocalStorage(cfg, log)
	if err != nil {
		return nil, err
	}
	return localStorage, nil
}

// provideRepository selects PostgreSQL when a DSN is configured and keeps
// metadata in memory otherwise.
func provideRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.Repository, func(), error) {
	if !cfg.HasDatabase() {
		log.Info().Msg("PHOTO_DATABASE_URL not set; photo metadata kept in memory")
		return repo.NewInMemoryRepository(), func() {}, nil
	}

	db, err := database.Connect(newDatabaseConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}
	return repo.NewPostgresRepository(db), cleanup, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func provideStagingArea(cfg *config.Config, log zerolog.Logger) (*staging.Area, error) {
	return staging.NewArea(cfg.StagingDir, log)
}

func provideNormalizer(cfg *config.Config) *imaging.Normalizer {
	return imaging.NewNormalizer(imaging.Options{
		MaxDimension:   cfg.MaxDimension,
		Quality:        cfg.JPEGQuality,
		MaxInputPixels: cfg.MaxInputPixels,
	})
}

func provideURLResolver(cfg *config.Config) *publicurl.Resolver {
	return publicurl.NewResolver(cfg.PublicBase())
}
