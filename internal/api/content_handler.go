package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"folio/internal/api/middleware"
	"folio/internal/database"
	"folio/internal/events"
	"folio/internal/repository"
)

// BlogHandler 覆盖通用的读取逻辑：每次读取都会增加浏览数。
type BlogHandler struct {
	*ResourceHandler[database.Blog]
	blogs *repository.BlogRepository
}

// NewBlogHandler constructs a BlogHandler.
func NewBlogHandler(blogs *repository.BlogRepository, publisher events.Publisher) *BlogHandler {
	return &BlogHandler{
		ResourceHandler: NewResourceHandler[database.Blog, blogRequest]("blogs", "Blog", blogs, publisher),
		blogs:           blogs,
	}
}

// Get 按 ID 或 slug 读取文章并原子地增加浏览数。
func (h *BlogHandler) Get(c *gin.Context) {
	blog, err := h.blogs.GetAndCountView(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	OK(c, blog)
}

// skillScopes 匿名访问只返回公开技能；?type= 按类型过滤。
func skillScopes(c *gin.Context) []repository.Scope {
	var scopes []repository.Scope
	if _, ok := middleware.UserIDFromContext(c); !ok {
		scopes = append(scopes, repository.PublicSkillsOnly())
	}
	switch t := c.Query("type"); t {
	case database.SkillTypeTech, database.SkillTypeHardSkill, database.SkillTypeSoftSkill:
		scopes = append(scopes, repository.SkillsOfType(t))
	}
	return scopes
}

// ProfileHandler 处理单例资料的读取与整体更新。
type ProfileHandler struct {
	profiles *repository.ProfileRepository
	events   events.Publisher
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(profiles *repository.ProfileRepository, publisher events.Publisher) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, events: publisher}
}

// Get 返回资料；尚未创建时 data 为 null。
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context())
	if err != nil {
		middleware.LoggerFromContext(c).Error("get profile failed", slog.Any("error", err))
		Internal(c, "Server Error")
		return
	}
	if profile == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": nil})
		return
	}
	OK(c, profile)
}

// Upsert 整体替换资料，不存在时创建。
func (h *ProfileHandler) Upsert(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile := req.Model()
	if err := h.profiles.Upsert(c.Request.Context(), profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Profile not found")
			return
		}
		middleware.LoggerFromContext(c).Error("upsert profile failed", slog.Any("error", err))
		Internal(c, "Server Error")
		return
	}
	publishEvent(c, h.events, events.Event{Type: events.TypeUpdated, Resource: "profile", ID: profile.ID})
	OK(c, profile)
}
