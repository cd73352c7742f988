//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"jan-server/services/photo-api/internal/config"
	domain "jan-server/services/photo-api/internal/domain/photo"
	"jan-server/services/photo-api/internal/infrastructure/imaging"
	"jan-server/services/photo-api/internal/infrastructure/logger"
	"jan-server/services/photo-api/internal/infrastructure/publicurl"
	"jan-server/services/photo-api/internal/infrastructure/staging"
	"jan-server/services/photo-api/internal/interfaces/httpserver"
	"jan-server/services/photo-api/internal/interfaces/httpserver/handlers"
)

var photoSet = wire.NewSet(
	provideRepository,
	provideStorage,
	provideStagingArea,
	provideNormalizer,
	provideURLResolver,
	wire.Bind(new(domain.StagingArea), new(*staging.Area)),
	wire.Bind(new(handlers.Stager), new(*staging.Area)),
	wire.Bind(new(domain.Normalizer), new(*imaging.Normalizer)),
	wire.Bind(new(domain.URLResolver), new(*publicurl.Resolver)),
	domain.NewService,
)

// BuildApplication assembles the photo API with Wire.
func BuildApplication(ctx context.Context) (*Application, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		photoSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil, nil
}
