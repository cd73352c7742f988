package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"

	"jan-server/services/photo-api/internal/config"
	"jan-server/services/photo-api/internal/infrastructure/imaging"
	"jan-server/services/photo-api/internal/infrastructure/metrics"
	"jan-server/services/photo-api/internal/utils/platformerrors"
	"jan-server/services/photo-api/utils/photoid"
)

// Client-facing messages.
const (
	MsgMissingBase64Fields    = "Missing base64Data, clientId, or type"
	MsgMissingMultipartFields = "Missing clientId or type"
	MsgNoFile                 = "No file uploaded"
	MsgInvalidBase64          = "Invalid base64Data"
	MsgNotAnImage             = "Only image files are allowed"
	MsgInvalidImage           = "Invalid image data"
	MsgUnsupportedEncoding    = "Unsupported upload encoding"
	MsgMissingImageURL        = "Missing imageUrl"
	MsgInvalidImageURL        = "Invalid imageUrl"
	MsgInvalidFilename        = "Invalid filename"
	MsgFileNotFound           = "File not found"
	MsgStoreFailed            = "Failed to store image"
)

// Repository is the metadata store collaborator.
type Repository interface {
	Create(ctx context.Context, record *PhotoRecord) error
	DeleteByFilename(ctx context.Context, filename string) (int64, error)
}

// BlobStore holds canonical images addressed by filename.
type BlobStore interface {
	Backend() string
	Put(ctx context.Context, filename string, data []byte) error
	Exists(ctx context.Context, filename string) (bool, error)
	Stat(ctx context.Context, filename string) (StoredImage, error)
	Open(ctx context.Context, filename string) (io.ReadCloser, StoredImage, error)
	Delete(ctx context.Context, filename string) error
	Health(ctx context.Context) error
}

// Normalizer produces the canonical JPEG.
type Normalizer interface {
	Normalize(src []byte) (imaging.Result, error)
}

// StagingArea hands out multipart uploads written by the transport layer.
type StagingArea interface {
	Read(path string) ([]byte, error)
	Release(path string) error
}

// URLResolver maps filenames to public URLs.
type URLResolver interface {
	Resolve(filename string) string
}

// Service orchestrates photo ingestion, lookup and deletion.
type Service struct {
	repo       Repository
	store      BlobStore
	normalizer Normalizer
	staging    StagingArea
	urls       URLResolver
	names      *FilenameGenerator
	slots      *semaphore.Weighted
	allowed    []string
	attempts   int
	log        zerolog.Logger
}

func NewService(
	cfg *config.Config,
	repo Repository,
	store BlobStore,
	normalizer Normalizer,
	staging StagingArea,
	urls URLResolver,
	log zerolog.Logger,
) *Service {
	concurrency := cfg.NormalizeConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	attempts := cfg.FilenameRetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	allowed := cfg.AllowedMIMETypes
	if len(allowed) == 0 {
		allowed = []string{"image/*"}
	}
	return &Service{
		repo:       repo,
		store:      store,
		normalizer: normalizer,
		staging:    staging,
		urls:       urls,
		names:      NewFilenameGenerator(),
		slots:      semaphore.NewWeighted(int64(concurrency)),
		allowed:    allowed,
		attempts:   attempts,
		log:        log.With().Str("component", "photo-service").Logger(),
	}
}

// rawUpload is what both intake strategies reduce to.
type rawUpload struct {
	data  []byte
	field string
}

// Ingest runs the upload -> normalize -> store pipeline for one request.
func (s *Service) Ingest(ctx context.Context, req IngestionRequest) (result *IngestionResult, err error) {
	if req.Kind == IntakeMultipart && req.StagedPath != "" {
		defer s.releaseStaged(req.StagedPath)
	}

	var stored int64
	defer func() {
		metrics.RecordUpload(intakeLabel(req.Kind), metrics.StatusLabel(err), stored)
	}()

	upload, err := s.intake(ctx, req)
	if err != nil {
		return nil, err
	}

	sniffed := mimetype.Detect(upload.data).String()
	if !MIMEAllowed(s.allowed, sniffed) {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeDecode,
			MsgNotAnImage, nil, "5f0c2d4e-9a61-4b7e-8d3f-1e6a2b9c7d40", map[string]any{"sniffed_mime": sniffed})
	}

	canonical, err := s.normalize(ctx, upload.data)
	if err != nil {
		return nil, err
	}

	filename, err := s.allocateFilename(ctx, upload.field)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, filename, canonical.Data); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			MsgStoreFailed, err, "0d7e3a91-2c4b-4f58-a6e1-93b8c5d2f174")
	}
	stored = int64(len(canonical.Data))

	url := s.urls.Resolve(filename)
	s.recordMetadata(ctx, req, filename, url, canonical)

	s.log.Info().
		Str("filename", filename).
		Str("intake", string(req.Kind)).
		Str("client_id", req.ClientID).
		Str("type", req.Type).
		Int("source_bytes", len(upload.data)).
		Int64("bytes", stored).
		Int("width", canonical.Width).
		Int("height", canonical.Height).
		Msg("photo stored")

	return &IngestionResult{
		Success:  true,
		URL:      url,
		Filename: filename,
		Size:     stored,
	}, nil
}

// intake validates the declared fields and produces the raw bytes for the
// selected strategy. Nothing is decoded before the required fields are seen.
func (s *Service) intake(ctx context.Context, req IngestionRequest) (rawUpload, error) {
	clientID := strings.TrimSpace(req.ClientID)
	photoType := strings.TrimSpace(req.Type)

	switch req.Kind {
	case IntakeBase64:
		if strings.TrimSpace(req.Base64Data) == "" || clientID == "" || photoType == "" {
			return rawUpload{}, validationError(ctx, MsgMissingBase64Fields, nil, "3b9d6f12-7e48-4c0a-b5d2-6a1f8e4c9b03")
		}
		if req.MimeType != "" && !MIMEAllowed(s.allowed, req.MimeType) {
			return rawUpload{}, validationError(ctx, MsgNotAnImage, nil, "a41e7c58-0b3d-4e96-9f2a-7c5d1b8e6a24")
		}
		data, declared, err := decodeBase64Payload(req.Base64Data)
		if err != nil {
			return rawUpload{}, validationError(ctx, MsgInvalidBase64, err, "c82f4a06-5d19-4b7c-a3e8-0f6b9d2c5e71")
		}
		if declared != "" && !MIMEAllowed(s.allowed, declared) {
			return rawUpload{}, validationError(ctx, MsgNotAnImage, nil, "a41e7c58-0b3d-4e96-9f2a-7c5d1b8e6a24")
		}
		return rawUpload{data: data, field: base64FieldName}, nil

	case IntakeMultipart:
		if req.StagedPath == "" {
			return rawUpload{}, validationError(ctx, MsgNoFile, nil, "e6a0b3c7-4f82-4d1e-9b5a-2c8f7d3e1a96")
		}
		if clientID == "" || photoType == "" {
			return rawUpload{}, validationError(ctx, MsgMissingMultipartFields, nil, "7d2c9e4b-1a6f-4083-b7e5-5f3a0c8d2b19")
		}
		if req.MimeType != "" && !MIMEAllowed(s.allowed, req.MimeType) {
			return rawUpload{}, validationError(ctx, MsgNotAnImage, nil, "a41e7c58-0b3d-4e96-9f2a-7c5d1b8e6a24")
		}
		data, err := s.staging.Read(req.StagedPath)
		if err != nil {
			return rawUpload{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
				"failed to read staged upload", err, "91b5e2d8-6c3a-4f07-8e4d-b2a7c0f9e358")
		}
		if len(data) == 0 {
			return rawUpload{}, validationError(ctx, MsgNoFile, nil, "e6a0b3c7-4f82-4d1e-9b5a-2c8f7d3e1a96")
		}
		field := req.FieldName
		if field == "" {
			field = defaultUploadField
		}
		return rawUpload{data: data, field: field}, nil

	default:
		return rawUpload{}, validationError(ctx, MsgUnsupportedEncoding, nil, "4c8a1f7e-3b25-4d9c-a06e-8e2b5f1d7c43")
	}
}

func (s *Service) normalize(ctx context.Context, data []byte) (imaging.Result, error) {
	ctx, span := otel.Tracer("photo-api").Start(ctx, "photo.normalize")
	defer span.End()
	span.SetAttributes(attribute.Int("photo.source_bytes", len(data)))

	if err := s.slots.Acquire(ctx, 1); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return imaging.Result{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"normalization slot unavailable", err, "b07d4e19-8a3c-4f62-9d5b-1e7c3a8f0b24")
	}
	defer s.slots.Release(1)

	start := time.Now()
	res, err := s.normalizer.Normalize(data)
	metrics.RecordNormalize(metrics.StatusLabel(err), time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, imaging.ErrDecode) {
			return imaging.Result{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeDecode,
				MsgInvalidImage, err, "2e6f9b3a-5d17-4c8e-b4a0-7f1d3c9e5a82")
		}
		return imaging.Result{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"failed to normalize image", err, "8f3a5c1d-7b94-4e26-a0d8-3c6e9b2f4a17")
	}

	span.SetAttributes(
		attribute.String("photo.source_format", res.SourceFormat),
		attribute.Int("photo.width", res.Width),
		attribute.Int("photo.height", res.Height),
		attribute.Int("photo.bytes", len(res.Data)),
	)
	return res, nil
}

// allocateFilename generates names until one is free in the Blob Store.
func (s *Service) allocateFilename(ctx context.Context, field string) (string, error) {
	for i := 0; i < s.attempts; i++ {
		name := s.names.Generate(field)
		exists, err := s.store.Exists(ctx, name)
		if err != nil {
			return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
				MsgStoreFailed, err, "6a9c2e5f-0d38-4b71-8e4a-c5f1b7d3e096")
		}
		if !exists {
			return name, nil
		}
		s.log.Warn().Str("filename", name).Msg("generated filename already exists, retrying")
	}
	return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
		MsgStoreFailed, fmt.Errorf("no free filename after %d attempts", s.attempts), "d4b8f0a2-6e17-4c93-b5d9-0a3e7c1f8b65")
}

func (s *Service) recordMetadata(ctx context.Context, req IngestionRequest, filename, url string, canonical imaging.Result) {
	if s.repo == nil {
		return
	}
	record := &PhotoRecord{
		ID:           photoid.New(),
		ClientID:     strings.TrimSpace(req.ClientID),
		Type:         strings.TrimSpace(req.Type),
		Filename:     filename,
		OriginalName: req.FileName,
		URL:          url,
		Bytes:        int64(len(canonical.Data)),
		Width:        canonical.Width,
		Height:       canonical.Height,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.log.Warn().Err(err).Str("filename", filename).Msg("failed to record photo metadata")
	}
}

func (s *Service) releaseStaged(path string) {
	if err := s.staging.Release(path); err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("failed to release staged upload")
	}
}

// Delete removes the image named by a full URL or bare filename. Absent
// images are still a success.
func (s *Service) Delete(ctx context.Context, imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return validationError(ctx, MsgMissingImageURL, nil, "f1c7a3e9-2b56-4d80-9e4f-6b0d8a2c5e37")
	}
	filename, err := ExtractFilename(imageURL)
	if err != nil {
		return validationError(ctx, MsgInvalidImageURL, err, "09e4b7d2-5c3a-4f18-a6b9-e2d7f0c4a851")
	}

	if err := s.store.Delete(ctx, filename); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			"failed to delete image", err, "5b2e8d0f-7a43-4c69-b1e5-9d3f6a0c8e24")
	}

	if s.repo != nil {
		if _, err := s.repo.DeleteByFilename(ctx, filename); err != nil {
			s.log.Warn().Err(err).Str("filename", filename).Msg("failed to delete photo metadata")
		}
	}

	s.log.Info().Str("filename", filename).Msg("photo deleted")
	return nil
}

// Info returns size and timestamps of a stored image.
func (s *Service) Info(ctx context.Context, filename string) (*StoredImage, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, validationError(ctx, MsgInvalidFilename, err, "c3f9a1d7-4e28-4b05-8a6c-2d9e5b7f0a13")
	}
	img, err := s.store.Stat(ctx, filename)
	if err != nil {
		return nil, s.lookupError(ctx, err)
	}
	return &img, nil
}

// Open streams a stored image.
func (s *Service) Open(ctx context.Context, filename string) (io.ReadCloser, *StoredImage, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			MsgFileNotFound, err, "7e0a4c8b-1f65-4d93-b2e7-a5c9d3f1b068")
	}
	reader, img, err := s.store.Open(ctx, filename)
	if err != nil {
		return nil, nil, s.lookupError(ctx, err)
	}
	return reader, &img, nil
}

// Health reports Blob Store readiness.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

func (s *Service) lookupError(ctx context.Context, err error) error {
	if errors.Is(err, ErrImageNotFound) || errors.Is(err, ErrInvalidFilename) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			MsgFileNotFound, err, "1a5d9f3c-8b27-4e60-a4c1-f7b3e9d5c082")
	}
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
		"failed to read image", err, "e8b2c6f4-0d91-4a37-b5e8-3c7a1f9d2e56")
}

func validationError(ctx context.Context, message string, err error, uuid string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, message, err, uuid)
}

func intakeLabel(kind IntakeKind) string {
	switch kind {
	case IntakeBase64, IntakeMultipart:
		return string(kind)
	default:
		return "unknown"
	}
}
