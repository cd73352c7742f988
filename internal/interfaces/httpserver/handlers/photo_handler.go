package handlers

import (
	"bufio"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/photo-api/internal/config"
	domain "jan-server/services/photo-api/internal/domain/photo"
	"jan-server/services/photo-api/internal/interfaces/httpserver/requests"
	"jan-server/services/photo-api/internal/interfaces/httpserver/responses"
	"jan-server/services/photo-api/internal/utils/platformerrors"
)

const (
	uploadFormField = "file"

	msgFileTooLarge    = "File too large"
	msgInvalidBody     = "Invalid request body"
	msgInvalidMultipart = "Invalid multipart form"
	msgNotFound        = "Not found"

	// multipartOverhead leaves room for boundaries and text fields on top of
	// the file cap before the body reader gives up.
	multipartOverhead = 1 << 20
	sniffLen          = 3072
)

// Stager persists multipart uploads for the ingestion service.
type Stager interface {
	Save(header *multipart.FileHeader) (string, error)
}

// PhotoHandler exposes photo endpoints.
type PhotoHandler struct {
	cfg     *config.Config
	service *domain.Service
	stager  Stager
	log     zerolog.Logger
}

func NewPhotoHandler(cfg *config.Config, service *domain.Service, stager Stager, log zerolog.Logger) *PhotoHandler {
	return &PhotoHandler{
		cfg:     cfg,
		service: service,
		stager:  stager,
		log:     log.With().Str("component", "photo-handler").Logger(),
	}
}

// Upload godoc
// @Summary      Upload a photo
// @Description  Accepts either a JSON body with base64Data or a multipart form with a "file" part. The image is normalized to a JPEG no larger than 400x400.
// @Tags         photos
// @Accept       json,mpfd
// @Produce      json
// @Param        request   body      requests.UploadBase64Request  false  "Base64 upload"
// @Param        file      formData  file                          false  "Image file"
// @Param        clientId  formData  string                        false  "Client ID"
// @Param        type      formData  string                        false  "Photo type"
// @Success      200       {object}  responses.UploadResponse
// @Failure      400       {object}  responses.ErrorResponse
// @Failure      413       {object}  responses.ErrorResponse
// @Failure      500       {object}  responses.ErrorResponse
// @Router       /api/upload [post]
func (h *PhotoHandler) Upload(c *gin.Context) {
	switch c.ContentType() {
	case gin.MIMEJSON:
		h.uploadBase64(c)
	case gin.MIMEMultipartPOSTForm:
		h.uploadMultipart(c)
	default:
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, domain.MsgUnsupportedEncoding, "3f7b1d9e-6a24-4c58-8e0b-d5a2c9f4e713")
	}
}

func (h *PhotoHandler) uploadBase64(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxJSONBytes)

	var req requests.UploadBase64Request
	if err := c.ShouldBindJSON(&req); err != nil {
		if isTooLarge(err) {
			responses.HandleNewError(c, platformerrors.ErrorTypePayloadTooLarge, msgFileTooLarge, "8b4e0c6a-2d91-4f37-a5c8-1e9d7b3f0a62")
			return
		}
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, msgInvalidBody, "c5a9e3f1-7b08-4d26-9e4c-6f2b1a8d0e35")
		return
	}

	h.ingest(c, domain.IngestionRequest{
		Kind:       domain.IntakeBase64,
		ClientID:   req.ClientID,
		Type:       req.Type,
		FileName:   req.FileName,
		Base64Data: req.Base64Data,
	})
}

func (h *PhotoHandler) uploadMultipart(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes+multipartOverhead)

	header, err := c.FormFile(uploadFormField)
	switch {
	case err == nil:
	case isTooLarge(err):
		responses.HandleNewError(c, platformerrors.ErrorTypePayloadTooLarge, msgFileTooLarge, "0e6c2a8f-4b17-4d93-b1e5-7a3d9c0f6b28")
		return
	case errors.Is(err, http.ErrMissingFile):
		// The service reports the missing file with its own message.
		h.ingest(c, domain.IngestionRequest{
			Kind:     domain.IntakeMultipart,
			ClientID: c.PostForm("clientId"),
			Type:     c.PostForm("type"),
		})
		return
	default:
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, msgInvalidMultipart, "a2d8f4b0-9c63-4e15-8b7a-3f1e6d0c9a54")
		return
	}

	if header.Size > h.cfg.MaxUploadBytes {
		responses.HandleNewError(c, platformerrors.ErrorTypePayloadTooLarge, msgFileTooLarge, "0e6c2a8f-4b17-4d93-b1e5-7a3d9c0f6b28")
		return
	}

	declared := header.Header.Get("Content-Type")
	if declared != "" && !domain.MIMEAllowed(h.cfg.AllowedMIMETypes, declared) {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, domain.MsgNotAnImage, "d7f3b9e5-1a48-4c06-9e2d-8b5a0f4c7e13")
		return
	}

	staged, err := h.stager.Save(header)
	if err != nil {
		responses.HandleError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler,
			platformerrors.ErrorTypeStorage, "failed to stage upload", err, "6e1a7c3d-0f92-4b58-a4e6-2d9b8f5c1a07"), "")
		return
	}

	h.ingest(c, domain.IngestionRequest{
		Kind:       domain.IntakeMultipart,
		ClientID:   c.PostForm("clientId"),
		Type:       c.PostForm("type"),
		FileName:   header.Filename,
		StagedPath: staged,
		FieldName:  uploadFormField,
		MimeType:   declared,
	})
}

func (h *PhotoHandler) ingest(c *gin.Context, req domain.IngestionRequest) {
	result, err := h.service.Ingest(c.Request.Context(), req)
	if err != nil {
		responses.HandleError(c, err, "upload failed")
		return
	}

	c.JSON(http.StatusOK, responses.UploadResponse{
		Success:  result.Success,
		URL:      result.URL,
		Filename: result.Filename,
		Size:     result.Size,
	})
}

// Delete godoc
// @Summary      Delete a photo
// @Description  Deletes the image named by a public URL or bare filename. Deleting an absent image succeeds.
// @Tags         photos
// @Accept       json
// @Produce      json
// @Param        request  body      requests.DeleteRequest  true  "Image to delete"
// @Success      200      {object}  responses.SuccessResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      500      {object}  responses.ErrorResponse
// @Router       /api/delete [delete]
func (h *PhotoHandler) Delete(c *gin.Context) {
	var req requests.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, msgInvalidBody, "b9c5e1a7-3d06-4f82-9a4b-e0f7c3d8a261")
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ImageURL); err != nil {
		responses.HandleError(c, err, "delete failed")
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{Success: true})
}

// Info godoc
// @Summary      Photo metadata
// @Description  Returns size and timestamps of a stored image.
// @Tags         photos
// @Produce      json
// @Param        filename  path      string  true  "Stored filename"
// @Success      200       {object}  responses.InfoResponse
// @Failure      400       {object}  responses.ErrorResponse
// @Failure      404       {object}  responses.ErrorResponse
// @Router       /api/info/{filename} [get]
func (h *PhotoHandler) Info(c *gin.Context) {
	img, err := h.service.Info(c.Request.Context(), c.Param("filename"))
	if err != nil {
		responses.HandleError(c, err, "info failed")
		return
	}

	c.JSON(http.StatusOK, responses.InfoResponse{
		Success:  true,
		Filename: img.Filename,
		Size:     img.Size,
		Created:  img.CreatedAt,
		Modified: img.ModifiedAt,
	})
}

// Serve streams a stored image by filename. It backs every path no route
// claims, so anything that is not a stored image is a plain 404.
func (h *PhotoHandler) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		h.notFound(c)
		return
	}
	name := strings.TrimPrefix(c.Request.URL.Path, "/")
	if name == "" || strings.Contains(name, "/") || domain.ValidateFilename(name) != nil {
		h.notFound(c)
		return
	}

	reader, img, err := h.service.Open(c.Request.Context(), name)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			h.notFound(c)
			return
		}
		responses.HandleError(c, err, "serve failed")
		return
	}
	defer reader.Close()

	buffered := bufio.NewReaderSize(reader, sniffLen)
	head, _ := buffered.Peek(sniffLen)
	contentType := mimetype.Detect(head).String()
	if img.ContentType != "" && strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = img.ContentType
	}

	headers := map[string]string{
		"Cache-Control": "public, max-age=31536000, immutable",
	}
	if !img.ModifiedAt.IsZero() {
		headers["Last-Modified"] = img.ModifiedAt.UTC().Format(http.TimeFormat)
	}

	if c.Request.Method == http.MethodHead {
		for k, v := range headers {
			c.Header(k, v)
		}
		c.Header("Content-Type", contentType)
		c.Header("Content-Length", strconv.FormatInt(img.Size, 10))
		c.Status(http.StatusOK)
		return
	}

	c.DataFromReader(http.StatusOK, img.Size, contentType, buffered, headers)
}

func (h *PhotoHandler) notFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, responses.ErrorResponse{Success: false, Error: msgNotFound})
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  responses.HealthResponse
// @Router       /health [get]
func (h *PhotoHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, responses.HealthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Ready reports whether the Blob Store accepts requests.
func (h *PhotoHandler) Ready(c *gin.Context) {
	if err := h.service.Health(c.Request.Context()); err != nil {
		h.log.Warn().Err(err).Msg("readiness check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
