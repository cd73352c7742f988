package photo

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"
)

const (
	canonicalExt       = ".jpg"
	base64FieldName    = "base64"
	filenameRandMax    = 1_000_000_000
	maxFilenameLength  = 255
	defaultUploadField = "file"
)

var (
	// ErrInvalidFilename is returned for names that are empty, too long, or
	// could escape the storage directory.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrImageNotFound is returned by Blob Store backends for absent files.
	ErrImageNotFound = errors.New("image not found")
)

// ValidateFilename rejects anything that is not a single, plain path element.
func ValidateFilename(name string) error {
	if name == "" || name == "." || name == ".." || len(name) > maxFilenameLength {
		return ErrInvalidFilename
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\\x00") {
		return ErrInvalidFilename
	}
	return nil
}

// FilenameGenerator builds <field>-<unix-millis>-<random>.jpg names.
type FilenameGenerator struct {
	now  func() time.Time
	rand func() int64
}

// NewFilenameGenerator uses the wall clock and math/rand/v2.
func NewFilenameGenerator() *FilenameGenerator {
	return &FilenameGenerator{
		now:  time.Now,
		rand: func() int64 { return rand.Int64N(filenameRandMax) },
	}
}

// Generate returns a new candidate name for the given intake field.
func (g *FilenameGenerator) Generate(field string) string {
	field = sanitizeField(field)
	return fmt.Sprintf("%s-%d-%d%s", field, g.now().UnixMilli(), g.rand(), canonicalExt)
}

func sanitizeField(field string) string {
	field = strings.TrimSpace(field)
	var b strings.Builder
	for _, r := range field {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return defaultUploadField
	}
	return b.String()
}

// ExtractFilename returns the last path element of a full URL or bare name.
// The result is unescaped and validated.
func ExtractFilename(imageURL string) (string, error) {
	raw := strings.TrimSpace(imageURL)
	if raw == "" {
		return "", ErrInvalidFilename
	}

	candidate := raw
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		candidate = u.EscapedPath()
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		candidate = raw[:i]
	}

	if i := strings.LastIndex(candidate, "/"); i >= 0 {
		candidate = candidate[i+1:]
	}
	name, err := url.PathUnescape(candidate)
	if err != nil {
		return "", ErrInvalidFilename
	}
	if err := ValidateFilename(name); err != nil {
		return "", err
	}
	return name, nil
}
