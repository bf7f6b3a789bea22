package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"folio/internal/api/middleware"
	"folio/internal/database"
	"folio/internal/events"
	"folio/internal/metrics"
	"folio/internal/repository"
)

// Repository 是资源处理器需要的持久化操作，repository.Collection 实现了它。
type Repository[M any] interface {
	List(ctx context.Context, scopes ...repository.Scope) ([]M, error)
	Get(ctx context.Context, id string) (*M, error)
	Create(ctx context.Context, item *M) error
	Replace(ctx context.Context, id string, item *M) error
	Delete(ctx context.Context, id string) error
}

// ResourceHandler 为一种内容类型提供 CRUD 接口。
// PUT 是整体替换：请求中缺省的字段会被清空，客户端需要提交完整文档。
type ResourceHandler[M any] struct {
	resource string
	label    string
	repo     Repository[M]
	events   events.Publisher
	bind     func(c *gin.Context) (*M, bool)
	scopes   func(c *gin.Context) []repository.Scope
}

// NewResourceHandler builds a handler whose request bodies are decoded into I.
func NewResourceHandler[M any, I Input[M]](resource, label string, repo Repository[M], publisher events.Publisher) *ResourceHandler[M] {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ResourceHandler[M]{
		resource: resource,
		label:    label,
		repo:     repo,
		events:   publisher,
		bind:     bindInput[M, I],
	}
}

// WithListScopes 让列表查询按请求附加过滤条件。
func (h *ResourceHandler[M]) WithListScopes(fn func(c *gin.Context) []repository.Scope) *ResourceHandler[M] {
	h.scopes = fn
	return h
}

func bindInput[M any, I Input[M]](c *gin.Context) (*M, bool) {
	var in I
	if !bindJSON(c, &in) {
		return nil, false
	}
	return in.Model(), true
}

// List 返回全部文档及数量。
func (h *ResourceHandler[M]) List(c *gin.Context) {
	var scopes []repository.Scope
	if h.scopes != nil {
		scopes = h.scopes(c)
	}
	items, err := h.repo.List(c.Request.Context(), scopes...)
	if err != nil {
		h.logger(c).Error("list failed", slog.Any("error", err))
		Internal(c, "Server Error")
		return
	}
	List(c, items, len(items))
}

// Get 按 ID 返回单个文档。
func (h *ResourceHandler[M]) Get(c *gin.Context) {
	item, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	OK(c, item)
}

// Create 校验并保存新文档。
func (h *ResourceHandler[M]) Create(c *gin.Context) {
	item, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.repo.Create(c.Request.Context(), item); err != nil {
		h.fail(c, "create", err)
		return
	}
	h.publish(c, events.TypeCreated, item)
	Created(c, item)
}

// Replace 使用请求体整体替换文档。
func (h *ResourceHandler[M]) Replace(c *gin.Context) {
	item, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.repo.Replace(c.Request.Context(), c.Param("id"), item); err != nil {
		h.fail(c, "replace", err)
		return
	}
	h.publish(c, events.TypeUpdated, item)
	OK(c, item)
}

// Delete 硬删除文档。
func (h *ResourceHandler[M]) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete", err)
		return
	}
	h.publishID(c, events.TypeDeleted, id)
	Message(c, h.label+" deleted successfully")
}

func (h *ResourceHandler[M]) fail(c *gin.Context, op string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		NotFound(c, h.label+" not found")
		return
	}
	h.logger(c).Error(op+" failed", slog.Any("error", err))
	Internal(c, "Server Error")
}

func (h *ResourceHandler[M]) publish(c *gin.Context, eventType string, item *M) {
	var id string
	if m, ok := any(item).(interface{ Meta() *database.Base }); ok {
		id = m.Meta().ID
	}
	h.publishID(c, eventType, id)
}

func (h *ResourceHandler[M]) publishID(c *gin.Context, eventType, id string) {
	publishEvent(c, h.events, events.Event{Type: eventType, Resource: h.resource, ID: id})
}

func (h *ResourceHandler[M]) logger(c *gin.Context) *slog.Logger {
	return middleware.LoggerFromContext(c).With(slog.String("resource", h.resource))
}

// publishEvent 发布失败只记录日志，不影响请求结果。
func publishEvent(c *gin.Context, publisher events.Publisher, event events.Event) {
	if publisher == nil {
		return
	}
	event.CorrelationID = middleware.GetCorrelationID(c)
	err := publisher.Publish(c.Request.Context(), event)
	metrics.ObservePublish(event.Type, err)
	if err != nil {
		middleware.LoggerFromContext(c).Warn("publish event failed",
			slog.String("type", event.Type),
			slog.Any("error", err),
		)
	}
}
