package handlers

import (
	"github.com/rs/zerolog"

	"jan-server/services/photo-api/internal/config"
	domain "jan-server/services/photo-api/internal/domain/photo"
)

// Provider wires HTTP handlers.
type Provider struct {
	Photo *PhotoHandler
}

func NewProvider(cfg *config.Config, service *domain.Service, stager Stager, log zerolog.Logger) *Provider {
	return &Provider{
		Photo: NewPhotoHandler(cfg, service, stager, log),
	}
}
