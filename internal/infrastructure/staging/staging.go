// Package staging holds multipart uploads on disk between the transport layer
// and the ingestion service.
package staging

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var errOutsideArea = errors.New("path is outside the staging area")

// Area is a directory of short-lived upload files.
type Area struct {
	dir string
	log zerolog.Logger
}

// NewArea creates dir if needed.
func NewArea(dir string, log zerolog.Logger) (*Area, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("staging directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve staging directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Area{
		dir: abs,
		log: log.With().Str("component", "staging").Logger(),
	}, nil
}

// Dir returns the absolute staging directory.
func (a *Area) Dir() string {
	return a.dir
}

// Save copies an uploaded multipart file into a fresh staging file and
// returns its path. Nothing is left behind on failure.
func (a *Area) Save(header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(a.dir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	path := dst.Name()

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write staging file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close staging file: %w", err)
	}
	return path, nil
}

// Read returns the staged bytes.
func (a *Area) Read(path string) ([]byte, error) {
	if err := a.contains(path); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Release deletes a staged file. Releasing twice is harmless.
func (a *Area) Release(path string) error {
	if path == "" {
		return nil
	}
	if err := a.contains(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove staging file: %w", err)
	}
	a.log.Debug().Str("path", path).Msg("staging file released")
	return nil
}

func (a *Area) contains(path string) error {
	rel, err := filepath.Rel(a.dir, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return errOutsideArea
	}
	return nil
}
