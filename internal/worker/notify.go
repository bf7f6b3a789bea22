package worker

import (
	"context"
	"log/slog"
	"time"

	"folio/internal/events"
)

// notify 把任务结果作为内容事件发布给在线的管理端，发布失败只记日志。
func notify(ctx context.Context, publisher events.Publisher, log *slog.Logger, eventType, publicID, correlationID string) {
	if publisher == nil {
		return
	}
	event := events.Event{
		Type:          eventType,
		Resource:      "media",
		ID:            publicID,
		CorrelationID: correlationID,
		At:            time.Now().UTC(),
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("publish task result failed", slog.String("type", eventType), slog.Any("error", err))
	}
}
