package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"folio/internal/events"
	"folio/internal/metrics"
	"folio/internal/tasks"
)

// ObjectDeleter 由 storage.Client 实现。
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, objectKey string) error
}

// MediaDeleteHandler 消费 media:delete 任务。
type MediaDeleteHandler struct {
	store     ObjectDeleter
	publisher events.Publisher
	logger    *slog.Logger
}

// NewMediaDeleteHandler 创建任务处理器。publisher 可以为 nil。
func NewMediaDeleteHandler(store ObjectDeleter, publisher events.Publisher, logger *slog.Logger) *MediaDeleteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaDeleteHandler{store: store, publisher: publisher, logger: logger}
}

// ProcessTask 实现 asynq.Handler。对象不存在视为成功。
func (h *MediaDeleteHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.MediaDeletePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	publicID := strings.TrimSpace(payload.PublicID)
	if publicID == "" {
		return fmt.Errorf("empty public id: %w", asynq.SkipRetry)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("public_id", publicID),
	)

	if err := h.store.DeleteObject(ctx, publicID); err != nil {
		log.Error("media delete failed", slog.Any("error", err))
		notify(ctx, h.publisher, log, events.TypeMediaDeleteFailed, publicID, payload.CorrelationID)
		return fmt.Errorf("delete object: %w", err)
	}

	log.Info("media deleted")
	notify(ctx, h.publisher, log, events.TypeMediaDeleted, publicID, payload.CorrelationID)
	return nil
}

// NewServeMux 注册 worker 支持的全部任务类型。
func NewServeMux(handler *MediaDeleteHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeMediaDelete, handler)
	return mux
}
