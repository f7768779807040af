package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/VanitasCaesar1/clinical-dashboard/aiclient"
	"github.com/VanitasCaesar1/clinical-dashboard/documents"
	"github.com/VanitasCaesar1/clinical-dashboard/models"
	"github.com/VanitasCaesar1/clinical-dashboard/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const (
	documentField       = "document"
	defaultMaxUpload    = 20 << 20
	uploadFailedMessage = "Upload failed. Please try again."
)

var pdfMagic = []byte("%PDF-")

// Archiver keeps the original uploaded files.
type Archiver interface {
	Put(ctx context.Context, filename string, data []byte) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, minio.ObjectInfo, error)
}

// UploadHistory records what was uploaded and how ingestion went.
type UploadHistory interface {
	Record(ctx context.Context, up repository.Upload) (uuid.UUID, error)
	MarkStatus(ctx context.Context, id uuid.UUID, status repository.Status, errMsg string) error
	MarkIngested(ctx context.Context, id uuid.UUID, documentID string) error
	Get(ctx context.Context, id uuid.UUID) (repository.Upload, error)
	List(ctx context.Context, limit int) ([]repository.Upload, error)
}

// Ingester hands a document to the AI backend.
type Ingester interface {
	UploadDocument(ctx context.Context, filename string, data []byte) (aiclient.UploadAck, error)
}

// CacheInvalidator refreshes the patient cache after a new document lands.
type CacheInvalidator interface {
	InvalidateAndRefresh(ctx context.Context) ([]models.DemographicsProjection, error)
}

type DocumentHandlerConfig struct {
	Ingester    Ingester
	Invalidator CacheInvalidator
	// Archive and History are optional.
	Archive        Archiver
	History        UploadHistory
	Logger         *zap.Logger
	MaxUploadBytes int64
	Timeout        time.Duration
}

type DocumentHandler struct {
	ingester    Ingester
	invalidator CacheInvalidator
	archive     Archiver
	history     UploadHistory
	logger      *zap.Logger
	maxBytes    int64
	timeout     time.Duration
}

func NewDocumentHandler(cfg DocumentHandlerConfig) *DocumentHandler {
	h := &DocumentHandler{
		ingester:    cfg.Ingester,
		invalidator: cfg.Invalidator,
		archive:     cfg.Archive,
		history:     cfg.History,
		logger:      cfg.Logger,
		maxBytes:    cfg.MaxUploadBytes,
		timeout:     cfg.Timeout,
	}
	if h.maxBytes <= 0 {
		h.maxBytes = defaultMaxUpload
	}
	if h.timeout <= 0 {
		h.timeout = 2 * time.Minute
	}
	return h
}

// Upload accepts a PDF, archives it, sends it for ingestion and refreshes
// the patient cache so the new patient shows up.
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile(documentField)
	if err != nil {
		return sendError(c, fiber.StatusBadRequest, CodeNoFile, "No file uploaded")
	}
	if file.Size > h.maxBytes {
		return sendError(c, fiber.StatusRequestEntityTooLarge, CodeFileTooLarge,
			fmt.Sprintf("File size exceeds maximum limit of %d MB", h.maxBytes/(1024*1024)))
	}
	filename := filepath.Base(file.Filename)
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return sendError(c, fiber.StatusBadRequest, CodeInvalidFileType, "Only PDF files are allowed")
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error("failed to open uploaded file", zap.Error(err))
		return sendError(c, fiber.StatusInternalServerError, CodeInternal, "Failed to process uploaded file")
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
	if err != nil {
		h.logger.Error("failed to read uploaded file", zap.Error(err))
		return sendError(c, fiber.StatusInternalServerError, CodeInternal, "Failed to process uploaded file")
	}
	if int64(len(data)) > h.maxBytes {
		return sendError(c, fiber.StatusRequestEntityTooLarge, CodeFileTooLarge,
			fmt.Sprintf("File size exceeds maximum limit of %d MB", h.maxBytes/(1024*1024)))
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return sendError(c, fiber.StatusBadRequest, CodeInvalidFileType, "File is not a valid PDF")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	// Archiving and history are best effort; ingestion does not depend on them.
	var objectKey string
	if h.archive != nil {
		if objectKey, err = h.archive.Put(ctx, filename, data); err != nil {
			h.logger.Warn("continuing without archived copy", zap.String("filename", filename), zap.Error(err))
		}
	}
	uploadID := uuid.Nil
	if h.history != nil {
		uploadID, err = h.history.Record(ctx, repository.Upload{
			Filename:  filename,
			ObjectKey: objectKey,
			SizeBytes: int64(len(data)),
			Status:    repository.StatusReceived,
		})
		if err != nil {
			h.logger.Warn("failed to record upload", zap.String("filename", filename), zap.Error(err))
			uploadID = uuid.Nil
		}
	}

	ack, err := h.ingester.UploadDocument(ctx, filename, data)
	if err != nil {
		h.markStatus(ctx, uploadID, repository.StatusFailed, err.Error())
		h.logger.Error("document ingestion failed",
			zap.String("filename", filename),
			zap.String("upload_id", uploadID.String()),
			zap.Error(err))
		return sendError(c, fiber.StatusBadGateway, CodeUploadFailed, uploadFailedMessage)
	}
	if h.history != nil && uploadID != uuid.Nil {
		if err := h.history.MarkIngested(ctx, uploadID, ack.DocumentID); err != nil {
			h.logger.Warn("failed to update upload status", zap.String("upload_id", uploadID.String()), zap.Error(err))
		}
	}

	resp := fiber.Map{
		"message":    "File uploaded successfully",
		"ack":        ack,
		"object_key": objectKey,
	}
	if uploadID != uuid.Nil {
		resp["upload_id"] = uploadID
	}
	list, err := h.invalidator.InvalidateAndRefresh(ctx)
	if err != nil {
		h.logger.Warn("refresh after upload failed", zap.Error(err))
		resp["refresh_error"] = "Patient list could not be refreshed. Try again shortly."
	} else {
		resp["patients"] = list
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *DocumentHandler) markStatus(ctx context.Context, id uuid.UUID, status repository.Status, msg string) {
	if h.history == nil || id == uuid.Nil {
		return
	}
	if err := h.history.MarkStatus(ctx, id, status, msg); err != nil {
		h.logger.Warn("failed to update upload status", zap.String("upload_id", id.String()), zap.Error(err))
	}
}

// ListUploads returns the upload history, newest first.
func (h *DocumentHandler) ListUploads(c *fiber.Ctx) error {
	if h.history == nil {
		return sendError(c, fiber.StatusServiceUnavailable, CodeFeatureDisabled, "Upload history is not configured")
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		return sendError(c, fiber.StatusBadRequest, CodeInvalidRequest, "limit must be between 1 and 500")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()
	uploads, err := h.history.List(ctx, limit)
	if err != nil {
		h.logger.Error("failed to list uploads", zap.Error(err))
		return sendError(c, fiber.StatusInternalServerError, CodeInternal, "Failed to list uploads")
	}
	return c.JSON(fiber.Map{
		"uploads": uploads,
		"count":   len(uploads),
	})
}

// GetDocument streams the archived original of an upload.
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	if h.history == nil || h.archive == nil {
		return sendError(c, fiber.StatusServiceUnavailable, CodeFeatureDisabled, "Document archive is not configured")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return sendError(c, fiber.StatusBadRequest, CodeInvalidRequest, "Upload ID must be in UUID format")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 30*time.Second)
	defer cancel()
	up, err := h.history.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return sendError(c, fiber.StatusNotFound, CodeDocumentNotFound, "Document not found")
	}
	if err != nil {
		h.logger.Error("failed to get upload", zap.String("upload_id", id.String()), zap.Error(err))
		return sendError(c, fiber.StatusInternalServerError, CodeInternal, "Failed to retrieve document")
	}
	if up.ObjectKey == "" {
		return sendError(c, fiber.StatusNotFound, CodeDocumentNotFound, "Document was not archived")
	}

	r, info, err := h.archive.Get(ctx, up.ObjectKey)
	if errors.Is(err, documents.ErrNotFound) {
		return sendError(c, fiber.StatusNotFound, CodeDocumentNotFound, "Document not found")
	}
	if err != nil {
		h.logger.Error("failed to get document from archive",
			zap.String("key", up.ObjectKey),
			zap.Error(err))
		return sendError(c, fiber.StatusInternalServerError, CodeInternal, "Failed to retrieve document")
	}
	// Read fully before cancel runs.
	body, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		h.logger.Error("failed to read document", zap.String("key", up.ObjectKey), zap.Error(err))
		return sendError(c, fiber.StatusInternalServerError, CodeInternal, "Failed to retrieve document")
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", up.Filename))
	return c.Send(body)
}
