package photo

import (
	"context"
	"fmt"
	"sync"

	domain "jan-server/services/photo-api/internal/domain/photo"
	"jan-server/services/photo-api/internal/utils/platformerrors"
)

// InMemoryRepository is a thread-safe repository used when no database is
// configured, and in tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]domain.PhotoRecord
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string]domain.PhotoRecord)}
}

func (r *InMemoryRepository) Create(ctx context.Context, record *domain.PhotoRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.Filename]; exists {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create photo record",
			fmt.Errorf("duplicate filename %s", record.Filename),
			"3c7e1a9f-5b24-4d86-a0e3-8f2b6d4c1e97",
		)
	}
	r.records[record.Filename] = *record
	return nil
}

func (r *InMemoryRepository) DeleteByFilename(ctx context.Context, filename string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[filename]; !exists {
		return 0, nil
	}
	delete(r.records, filename)
	return 1, nil
}

func (r *InMemoryRepository) GetByFilename(ctx context.Context, filename string) (*domain.PhotoRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[filename]
	if !ok {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"photo record not found",
			nil,
			"8e2a6c0d-4f93-4b57-a1e6-c9d3f5b7a804",
		)
	}
	return &record, nil
}

// Len returns the number of stored records.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
