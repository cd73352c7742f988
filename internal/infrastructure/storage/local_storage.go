package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/photo-api/internal/config"
	domain "jan-server/services/photo-api/internal/domain/photo"
	"jan-server/services/photo-api/internal/infrastructure/metrics"
)

const (
	backendLocal = "local"
	tmpDirName   = ".tmp"
)

// LocalStorage keeps canonical images as flat files in one directory.
type LocalStorage struct {
	basePath string
	tmpPath  string
	log      zerolog.Logger
}

// NewLocalStorage creates the upload directory if needed.
func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath := strings.TrimSpace(cfg.UploadDir)
	if basePath == "" {
		return nil, errors.New("PHOTO_UPLOAD_DIR is required for local storage")
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve upload directory: %w", err)
	}

	tmpPath := filepath.Join(abs, tmpDirName)
	if err := os.MkdirAll(tmpPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	logger.Info().Str("path", abs).Msg("local storage initialized")

	return &LocalStorage{
		basePath: abs,
		tmpPath:  tmpPath,
		log:      logger,
	}, nil
}

// Backend names the storage implementation.
func (l *LocalStorage) Backend() string {
	return backendLocal
}

// ResolvePath maps a filename to its absolute path inside the upload
// directory, refusing anything that could land outside it.
func (l *LocalStorage) ResolvePath(filename string) (string, error) {
	if err := domain.ValidateFilename(filename); err != nil {
		return "", err
	}
	if filename == tmpDirName {
		return "", domain.ErrInvalidFilename
	}
	full := filepath.Join(l.basePath, filename)
	rel, err := filepath.Rel(l.basePath, full)
	if err != nil || rel != filename {
		return "", domain.ErrInvalidFilename
	}
	return full, nil
}

// Put writes data to a temp file and renames it into place, so readers see
// either nothing or the complete file.
func (l *LocalStorage) Put(ctx context.Context, filename string, data []byte) (err error) {
	start := time.Now()
	defer func() { l.record("put", err, start) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := l.ResolvePath(filename)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.tmpPath, "put-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to chmod file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	l.log.Debug().
		Str("filename", filename).
		Int("bytes", len(data)).
		Msg("file written to local storage")
	return nil
}

// Exists reports whether filename is stored.
func (l *LocalStorage) Exists(ctx context.Context, filename string) (bool, error) {
	_, err := l.Stat(ctx, filename)
	if errors.Is(err, domain.ErrImageNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Stat returns size and timestamps. Files are write-once, so the creation
// time is the modification time.
func (l *LocalStorage) Stat(ctx context.Context, filename string) (img domain.StoredImage, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, domain.ErrImageNotFound) {
			l.record("stat", nil, start)
			return
		}
		l.record("stat", err, start)
	}()

	if err := ctx.Err(); err != nil {
		return domain.StoredImage{}, err
	}
	path, err := l.ResolvePath(filename)
	if err != nil {
		return domain.StoredImage{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.StoredImage{}, fmt.Errorf("%w: %s", domain.ErrImageNotFound, filename)
		}
		return domain.StoredImage{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return domain.StoredImage{}, fmt.Errorf("%w: %s", domain.ErrImageNotFound, filename)
	}
	return storedImageFromInfo(filename, info), nil
}

// Open returns a reader for the stored file.
func (l *LocalStorage) Open(ctx context.Context, filename string) (io.ReadCloser, domain.StoredImage, error) {
	img, err := l.Stat(ctx, filename)
	if err != nil {
		return nil, domain.StoredImage{}, err
	}
	path, err := l.ResolvePath(filename)
	if err != nil {
		return nil, domain.StoredImage{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.StoredImage{}, fmt.Errorf("%w: %s", domain.ErrImageNotFound, filename)
		}
		return nil, domain.StoredImage{}, fmt.Errorf("failed to open file: %w", err)
	}
	return file, img, nil
}

// Delete removes the file. Missing files are not an error.
func (l *LocalStorage) Delete(ctx context.Context, filename string) (err error) {
	start := time.Now()
	defer func() { l.record("delete", err, start) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := l.ResolvePath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Health checks if the storage directory is writable.
func (l *LocalStorage) Health(ctx context.Context) error {
	tmp, err := os.CreateTemp(l.tmpPath, "health-*")
	if err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	_ = os.Remove(name)
	return nil
}

func (l *LocalStorage) record(operation string, err error, start time.Time) {
	metrics.RecordStorageOperation(backendLocal, operation, metrics.StatusLabel(err), time.Since(start).Seconds())
}

func storedImageFromInfo(filename string, info os.FileInfo) domain.StoredImage {
	return domain.StoredImage{
		Filename:    filename,
		Size:        info.Size(),
		CreatedAt:   info.ModTime().UTC(),
		ModifiedAt:  info.ModTime().UTC(),
		ContentType: detectContentTypeFromPath(filename),
	}
}

// detectContentTypeFromPath attempts to determine content type from file extension.
func detectContentTypeFromPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
