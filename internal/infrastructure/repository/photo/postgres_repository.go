package photo

import (
	"context"

	"gorm.io/gorm"

	domain "jan-server/services/photo-api/internal/domain/photo"
	"jan-server/services/photo-api/internal/infrastructure/database/entities"
	"jan-server/services/photo-api/internal/utils/platformerrors"
)

// PostgresRepository persists photo metadata via PostgreSQL using GORM.
type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, record *domain.PhotoRecord) error {
	entity := toEntity(record)
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create photo record",
			err,
			"3c7e1a9f-5b24-4d86-a0e3-8f2b6d4c1e97",
		)
	}
	record.CreatedAt = entity.CreatedAt
	return nil
}

func (r *PostgresRepository) DeleteByFilename(ctx context.Context, filename string) (int64, error) {
	result := r.db.WithContext(ctx).Where("filename = ?", filename).Delete(&entities.PhotoRecord{})
	if result.Error != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete photo record",
			result.Error,
			"b5d9f2e4-6a17-4c30-9e8b-d1a4c7f0e362",
		)
	}
	return result.RowsAffected, nil
}

func (r *PostgresRepository) GetByFilename(ctx context.Context, filename string) (*domain.PhotoRecord, error) {
	var entity entities.PhotoRecord
	err := r.db.WithContext(ctx).Where("filename = ?", filename).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				"photo record not found",
				err,
				"8e2a6c0d-4f93-4b57-a1e6-c9d3f5b7a804",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get photo record",
			err,
			"f0c4e8a2-1d65-4b79-8c3e-a7b2d9f6e015",
		)
	}
	record := mapEntity(entity)
	return &record, nil
}

func toEntity(record *domain.PhotoRecord) entities.PhotoRecord {
	return entities.PhotoRecord{
		ID:           record.ID,
		ClientID:     record.ClientID,
		Type:         record.Type,
		Filename:     record.Filename,
		OriginalName: record.OriginalName,
		URL:          record.URL,
		Bytes:        record.Bytes,
		Width:        record.Width,
		Height:       record.Height,
		CreatedAt:    record.CreatedAt,
	}
}

func mapEntity(entity entities.PhotoRecord) domain.PhotoRecord {
	return domain.PhotoRecord{
		ID:           entity.ID,
		ClientID:     entity.ClientID,
		Type:         entity.Type,
		Filename:     entity.Filename,
		OriginalName: entity.OriginalName,
		URL:          entity.URL,
		Bytes:        entity.Bytes,
		Width:        entity.Width,
		Height:       entity.Height,
		CreatedAt:    entity.CreatedAt,
	}
}
