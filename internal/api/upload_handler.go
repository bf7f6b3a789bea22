package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"folio/internal/api/middleware"
	"folio/internal/events"
	"folio/internal/media"
	"folio/internal/metrics"
)

// MediaRelay 由 media.Relay 实现。
type MediaRelay interface {
	UploadImage(ctx context.Context, filename string, data []byte, declaredType string) (media.Asset, error)
	UploadDocument(ctx context.Context, filename string, data []byte, declaredType string) (media.Asset, error)
	Delete(ctx context.Context, publicID, correlationID string) error
}

// UploadHandler 接收 multipart 上传并转发到媒体托管。
type UploadHandler struct {
	relay  MediaRelay
	events events.Publisher
}

// NewUploadHandler constructs an UploadHandler.
func NewUploadHandler(relay MediaRelay, publisher events.Publisher) *UploadHandler {
	return &UploadHandler{relay: relay, events: publisher}
}

type deleteMediaRequest struct {
	PublicID string `json:"publicId" binding:"required,max=512"`
}

// UploadImage 处理 multipart 字段 image。
func (h *UploadHandler) UploadImage(c *gin.Context) {
	h.upload(c, "image", media.MaxImageBytes, h.relay.UploadImage)
}

// UploadDocument 处理 multipart 字段 document，仅接受 PDF。
func (h *UploadHandler) UploadDocument(c *gin.Context) {
	h.upload(c, "document", media.MaxDocumentBytes, h.relay.UploadDocument)
}

type uploadFunc func(ctx context.Context, filename string, data []byte, declaredType string) (media.Asset, error)

func (h *UploadHandler) upload(c *gin.Context, field string, limit int, send uploadFunc) {
	logger := middleware.LoggerFromContext(c).With(slog.String("kind", field))

	file, err := c.FormFile(field)
	if err != nil {
		BadRequest(c, fmt.Sprintf("No %s file provided", field))
		return
	}
	if file.Size > int64(limit) {
		metrics.ObserveUpload(field, 0, media.ErrTooLarge)
		BadRequest(c, fmt.Sprintf("File too large, maximum is %d MB", limit>>20))
		return
	}

	data, err := readPart(file, limit)
	if err != nil {
		logger.Error("read upload failed", slog.Any("error", err))
		Internal(c, "Upload failed")
		return
	}

	asset, err := send(c.Request.Context(), file.Filename, data, file.Header.Get("Content-Type"))
	metrics.ObserveUpload(field, len(data), err)
	if err != nil {
		if msg, ok := rejectionMessage(err, limit); ok {
			logger.Info("upload rejected", slog.Any("error", err))
			BadRequest(c, msg)
			return
		}
		logger.Error("relay upload failed", slog.Any("error", err))
		Internal(c, "Upload failed")
		return
	}

	publishEvent(c, h.events, events.Event{Type: events.TypeMediaUploaded, Resource: "media", ID: asset.PublicID})
	OK(c, asset)
}

// readPart 最多多读一个字节，让超限文件交给 relay 判定。
func readPart(file *multipart.FileHeader, limit int) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, int64(limit)+1))
}

func rejectionMessage(err error, limit int) (string, bool) {
	switch {
	case errors.Is(err, media.ErrEmptyFile):
		return "File is empty", true
	case errors.Is(err, media.ErrTooLarge):
		return fmt.Sprintf("File too large, maximum is %d MB", limit>>20), true
	case errors.Is(err, media.ErrUnsupportedType):
		return "Unsupported file type", true
	case errors.Is(err, media.ErrInfected):
		return "Malicious file detected", true
	}
	return "", false
}

// Delete 请求删除托管对象，不等待结果。
func (h *UploadHandler) Delete(c *gin.Context) {
	var req deleteMediaRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.relay.Delete(c.Request.Context(), req.PublicID, middleware.GetCorrelationID(c)); err != nil {
		if errors.Is(err, media.ErrInvalidPublicID) {
			BadRequest(c, "Invalid publicId")
			return
		}
		Internal(c, "Delete failed")
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: "Image deleted"})
}
