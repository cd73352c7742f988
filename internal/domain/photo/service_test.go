package photo_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"jan-server/services/photo-api/internal/config"
	"jan-server/services/photo-api/internal/domain/photo"
	"jan-server/services/photo-api/internal/infrastructure/imaging"
	"jan-server/services/photo-api/internal/infrastructure/publicurl"
	repo "jan-server/services/photo-api/internal/infrastructure/repository/photo"
	"jan-server/services/photo-api/internal/infrastructure/staging"
	"jan-server/services/photo-api/internal/infrastructure/storage"
	"jan-server/services/photo-api/internal/utils/platformerrors"
)

type fixture struct {
	service *photo.Service
	store   *storage.LocalStorage
	staging *staging.Area
	repo    *repo.InMemoryRepository
	urls    *publicurl.Resolver
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		UploadDir:             filepath.Join(root, "uploads"),
		StagingDir:            filepath.Join(root, "staging"),
		AllowedMIMETypes:      []string{"image/*"},
		NormalizeConcurrency:  2,
		FilenameRetryAttempts: 5,
		PublicBaseURL:         "https://photos.example.com",
	}

	store, err := storage.NewLocalStorage(cfg, zerolog.Nop())
	require.NoError(t, err)
	area, err := staging.NewArea(cfg.StagingDir, zerolog.Nop())
	require.NoError(t, err)
	records := repo.NewInMemoryRepository()
	urls := publicurl.NewResolver(cfg.PublicBaseURL)
	normalizer := imaging.NewNormalizer(imaging.Options{MaxDimension: 400, Quality: 80})

	return &fixture{
		service: photo.NewService(cfg, records, store, normalizer, area, urls, zerolog.Nop()),
		store:   store,
		staging: area,
		repo:    records,
		urls:    urls,
		dir:     cfg.UploadDir,
	}
}

// stage writes data into the staging area the way the transport layer does.
func (f *fixture) stage(t *testing.T, data []byte) string {
	t.Helper()
	file, err := os.CreateTemp(f.staging.Dir(), "upload-*")
	require.NoError(t, err)
	_, err = file.Write(data)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	return file.Name()
}

func (f *fixture) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func storedDimensions(t *testing.T, f *fixture, filename string) (int, int) {
	t.Helper()
	rc, _, err := f.store.Open(context.Background(), filename)
	require.NoError(t, err)
	defer rc.Close()
	cfg, format, err := image.DecodeConfig(rc)
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	return cfg.Width, cfg.Height
}

func TestIngestBase64LargeJPEG(t *testing.T) {
	f := newFixture(t)
	original := jpegBytes(t, 1000, 1000)

	result, err := f.service.Ingest(context.Background(), photo.IngestionRequest{
		Kind:       photo.IntakeBase64,
		ClientID:   "c1",
		Type:       "progress",
		Base64Data: base64.StdEncoding.EncodeToString(original),
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Regexp(t, `^base64-\d+-\d+\.jpg$`, result.Filename)
	assert.Equal(t, "https://photos.example.com/"+result.Filename, result.URL)

	w, h := storedDimensions(t, f, result.Filename)
	assert.LessOrEqual(t, w, 400)
	assert.LessOrEqual(t, h, 400)

	img, err := f.store.Stat(context.Background(), result.Filename)
	require.NoError(t, err)
	assert.Equal(t, img.Size, result.Size, "size reports the canonical bytes")
	assert.NotEqual(t, int64(len(original)), result.Size)

	record, err := f.repo.GetByFilename(context.Background(), result.Filename)
	require.NoError(t, err)
	assert.Equal(t, "c1", record.ClientID)
	assert.Equal(t, "progress", record.Type)
	assert.Equal(t, result.URL, record.URL)
	assert.Equal(t, 400, record.Width)
}

func TestIngestBase64DataURL(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Ingest(context.Background(), photo.IngestionRequest{
		Kind:       photo.IntakeBase64,
		ClientID:   "c1",
		Type:       "before",
		Base64Data: "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 50, 30)),
	})
	require.NoError(t, err)

	w, h := storedDimensions(t, f, result.Filename)
	assert.Equal(t, 50, w)
	assert.Equal(t, 30, h)
}

func TestIngestValidationFailsFast(t *testing.T) {
	f := newFixture(t)
	valid := base64.StdEncoding.EncodeToString(jpegBytes(t, 10, 10))

	tests := []struct {
		name    string
		req     photo.IngestionRequest
		message string
	}{
		{
			name:    "missing client id",
			req:     photo.IngestionRequest{Kind: photo.IntakeBase64, Type: "progress", Base64Data: valid},
			message: photo.MsgMissingBase64Fields,
		},
		{
			name:    "missing type",
			req:     photo.IngestionRequest{Kind: photo.IntakeBase64, ClientID: "c1", Base64Data: valid},
			message: photo.MsgMissingBase64Fields,
		},
		{
			name:    "missing payload",
			req:     photo.IngestionRequest{Kind: photo.IntakeBase64, ClientID: "c1", Type: "progress"},
			message: photo.MsgMissingBase64Fields,
		},
		{
			name:    "undecodable base64",
			req:     photo.IngestionRequest{Kind: photo.IntakeBase64, ClientID: "c1", Type: "progress", Base64Data: "%%%"},
			message: photo.MsgInvalidBase64,
		},
		{
			name:    "non-image data url",
			req:     photo.IngestionRequest{Kind: photo.IntakeBase64, ClientID: "c1", Type: "progress", Base64Data: "data:application/pdf;base64," + valid},
			message: photo.MsgNotAnImage,
		},
		{
			name:    "multipart without file",
			req:     photo.IngestionRequest{Kind: photo.IntakeMultipart, ClientID: "c1", Type: "progress"},
			message: photo.MsgNoFile,
		},
		{
			name:    "unknown intake",
			req:     photo.IngestionRequest{Kind: "xml", ClientID: "c1", Type: "progress"},
			message: photo.MsgUnsupportedEncoding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Ingest(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation), "got %v", err)

			var perr *platformerrors.PlatformError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.message, perr.Message)
		})
	}

	assert.Empty(t, f.storedFiles(t), "no file may be written on validation failure")
	assert.Equal(t, 0, f.repo.Len())
}

func TestIngestRejectsNonImagePayload(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Ingest(context.Background(), photo.IngestionRequest{
		Kind:       photo.IntakeBase64,
		ClientID:   "c1",
		Type:       "progress",
		Base64Data: base64.StdEncoding.EncodeToString([]byte("just some text, definitely not pixels")),
	})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeDecode), "got %v", err)

	_, err = f.service.Ingest(context.Background(), photo.IngestionRequest{
		Kind:       photo.IntakeBase64,
		ClientID:   "c1",
		Type:       "progress",
		Base64Data: base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x00, 0x01}),
	})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeDecode), "got %v", err)
	assert.ErrorIs(t, err, imaging.ErrDecode)

	assert.Empty(t, f.storedFiles(t))
}

func TestIngestMultipartReleasesStagedFileOnEveryPath(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		clientID string
		mime     string
		wantErr  platformerrors.ErrorType
	}{
		{name: "success", data: nil, clientID: "c1", mime: "image/jpeg"},
		{name: "validation failure", data: nil, clientID: "", mime: "image/jpeg", wantErr: platformerrors.ErrorTypeValidation},
		{name: "declared non-image", data: nil, clientID: "c1", mime: "text/plain", wantErr: platformerrors.ErrorTypeValidation},
		{name: "decode failure", data: []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}, clientID: "c1", mime: "image/png", wantErr: platformerrors.ErrorTypeDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			data := tt.data
			if data == nil {
				data = jpegBytes(t, 800, 600)
			}
			staged := f.stage(t, data)

			result, err := f.service.Ingest(context.Background(), photo.IngestionRequest{
				Kind:       photo.IntakeMultipart,
				ClientID:   tt.clientID,
				Type:       "progress",
				FileName:   "IMG_0001.jpg",
				StagedPath: staged,
				FieldName:  "file",
				MimeType:   tt.mime,
			})

			_, statErr := os.Stat(staged)
			assert.True(t, os.IsNotExist(statErr), "staged file must be removed")

			if tt.wantErr != "" {
				assert.True(t, platformerrors.IsErrorType(err, tt.wantErr), "got %v", err)
				assert.Empty(t, f.storedFiles(t))
				return
			}

			require.NoError(t, err)
			assert.Regexp(t, `^file-\d+-\d+\.jpg$`, result.Filename)
			w, h := storedDimensions(t, f, result.Filename)
			assert.Equal(t, 400, w)
			assert.Equal(t, 300, h)

			record, err := f.repo.GetByFilename(context.Background(), result.Filename)
			require.NoError(t, err)
			assert.Equal(t, "IMG_0001.jpg", record.OriginalName)
		})
	}
}

type failingStore struct {
	photo.BlobStore
}

func (failingStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestIngestReleasesStagedFileWhenPutFails(t *testing.T) {
	f := newFixture(t)
	cfg := &config.Config{AllowedMIMETypes: []string{"image/*"}, NormalizeConcurrency: 1, FilenameRetryAttempts: 1}
	service := photo.NewService(cfg, f.repo, failingStore{BlobStore: f.store}, imaging.NewNormalizer(imaging.Options{}), f.staging, f.urls, zerolog.Nop())

	staged := f.stage(t, jpegBytes(t, 20, 20))
	_, err := service.Ingest(context.Background(), photo.IngestionRequest{
		Kind:       photo.IntakeMultipart,
		ClientID:   "c1",
		Type:       "progress",
		StagedPath: staged,
	})

	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeStorage), "got %v", err)
	_, statErr := os.Stat(staged)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, 0, f.repo.Len())
}

type collidingStore struct {
	photo.BlobStore
	taken int
	calls int
}

func (s *collidingStore) Exists(ctx context.Context, filename string) (bool, error) {
	s.calls++
	if s.calls <= s.taken {
		return true, nil
	}
	return s.BlobStore.Exists(ctx, filename)
}

func TestIngestRetriesOnFilenameCollision(t *testing.T) {
	f := newFixture(t)
	payload := base64.StdEncoding.EncodeToString(jpegBytes(t, 10, 10))
	req := photo.IngestionRequest{Kind: photo.IntakeBase64, ClientID: "c1", Type: "t", Base64Data: payload}

	cfg := &config.Config{AllowedMIMETypes: []string{"image/*"}, NormalizeConcurrency: 1, FilenameRetryAttempts: 3}
	store := &collidingStore{BlobStore: f.store, taken: 2}
	service := photo.NewService(cfg, nil, store, imaging.NewNormalizer(imaging.Options{}), f.staging, f.urls, zerolog.Nop())

	result, err := service.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, store.calls)
	assert.NotEmpty(t, result.Filename)

	exhausted := &collidingStore{BlobStore: f.store, taken: 10}
	service = photo.NewService(cfg, nil, exhausted, imaging.NewNormalizer(imaging.Options{}), f.staging, f.urls, zerolog.Nop())
	_, err = service.Ingest(context.Background(), req)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeStorage), "got %v", err)
}

func TestIngestConcurrentDistinctFiles(t *testing.T) {
	f := newFixture(t)
	const n = 16

	results := make([]*photo.IngestionResult, n)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			data := jpegBytes(t, 420+i*10, 300)
			res, err := f.service.Ingest(ctx, photo.IngestionRequest{
				Kind:       photo.IntakeBase64,
				ClientID:   fmt.Sprintf("client-%d", i),
				Type:       "progress",
				Base64Data: base64.StdEncoding.EncodeToString(data),
			})
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[string]struct{}, n)
	for _, res := range results {
		seen[res.Filename] = struct{}{}
		img, err := f.store.Stat(context.Background(), res.Filename)
		require.NoError(t, err)
		assert.Equal(t, res.Size, img.Size)
	}
	assert.Len(t, seen, n)
	assert.Len(t, f.storedFiles(t), n)
	assert.Equal(t, n, f.repo.Len())
}

func TestResolvedURLRoundTripsToStat(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Ingest(context.Background(), photo.IngestionRequest{
		Kind:       photo.IntakeBase64,
		ClientID:   "c1",
		Type:       "progress",
		Base64Data: base64.StdEncoding.EncodeToString(pngBytes(t, 640, 480)),
	})
	require.NoError(t, err)

	name, err := photo.ExtractFilename(f.urls.Resolve(result.Filename))
	require.NoError(t, err)
	img, err := f.store.Stat(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, result.Size, img.Size)
}

func TestDeleteIsIdempotent(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Ingest(context.Background(), photo.IngestionRequest{
		Kind:       photo.IntakeBase64,
		ClientID:   "c1",
		Type:       "progress",
		Base64Data: base64.StdEncoding.EncodeToString(jpegBytes(t, 30, 30)),
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.repo.Len())

	require.NoError(t, f.service.Delete(context.Background(), result.URL))
	require.NoError(t, f.service.Delete(context.Background(), result.URL))
	require.NoError(t, f.service.Delete(context.Background(), "http://host/nonexistent.jpg"))

	_, err = f.service.Info(context.Background(), result.Filename)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	assert.Equal(t, 0, f.repo.Len())
}

func TestDeleteValidation(t *testing.T) {
	f := newFixture(t)

	err := f.service.Delete(context.Background(), "  ")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))

	for _, input := range []string{"http://host/..", "../../etc/passwd/..", "http://host/%2e%2e"} {
		err = f.service.Delete(context.Background(), input)
		assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation), "input %q got %v", input, err)
	}
}

func TestInfoAndOpen(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Info(context.Background(), "nonexistent.jpg")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	_, err = f.service.Info(context.Background(), "..")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))

	result, err := f.service.Ingest(context.Background(), photo.IngestionRequest{
		Kind:       photo.IntakeBase64,
		ClientID:   "c1",
		Type:       "progress",
		Base64Data: base64.StdEncoding.EncodeToString(jpegBytes(t, 64, 64)),
	})
	require.NoError(t, err)

	info, err := f.service.Info(context.Background(), result.Filename)
	require.NoError(t, err)
	assert.Equal(t, result.Filename, info.Filename)
	assert.Equal(t, result.Size, info.Size)

	rc, img, err := f.service.Open(context.Background(), result.Filename)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, result.Size, int64(len(data)))
	assert.Equal(t, "image/jpeg", img.ContentType)

	_, _, err = f.service.Open(context.Background(), "missing.jpg")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	assert.NoError(t, f.service.Health(context.Background()))
}
