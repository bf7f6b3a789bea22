package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"folio/internal/api/middleware"
	"folio/internal/auth"
	"folio/internal/database"
	"folio/internal/events"
	"folio/internal/repository"
	"folio/internal/throttle"
)

// Dependencies 汇总路由需要的服务，未启用的可选依赖留空。
type Dependencies struct {
	Store          *repository.Store
	Auth           *auth.AuthService
	Limiter        throttle.Limiter
	Relay          MediaRelay
	Events         events.Publisher
	Subscriber     Subscriber
	AllowRegister  bool
	AllowedOrigins []string
	Logger         *slog.Logger
}

// RegisterRoutes 注册 /api 下的全部路由。
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}
	store := deps.Store
	protected := middleware.AuthMiddleware(deps.Auth)
	optional := middleware.OptionalAuthMiddleware(deps.Auth)

	authHandler := NewAuthHandler(store.Users, deps.Auth, deps.Limiter, deps.AllowRegister)
	wsHandler := NewWsHandler(deps.Subscriber, deps.Auth, deps.Logger, deps.AllowedOrigins)

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", protected, authHandler.Me)
	}

	api.GET("/ws", wsHandler.HandleConnection)

	registerResource(api, "/projects", NewResourceHandler[database.Project, projectRequest]("projects", "Project", store.Projects, deps.Events), protected)
	registerResource(api, "/experiences", NewResourceHandler[database.Experience, experienceRequest]("experiences", "Experience", store.Experiences, deps.Events), protected)
	registerResource(api, "/educations", NewResourceHandler[database.Education, educationRequest]("educations", "Education", store.Educations, deps.Events), protected)
	registerResource(api, "/certificates", NewResourceHandler[database.Certificate, certificateRequest]("certificates", "Certificate", store.Certificates, deps.Events), protected)
	registerResource(api, "/achievements", NewResourceHandler[database.Achievement, achievementRequest]("achievements", "Achievement", store.Achievements, deps.Events), protected)

	skills := NewResourceHandler[database.Skill, skillRequest]("skills", "Skill", store.Skills, deps.Events).WithListScopes(skillScopes)
	skillGroup := api.Group("/skills")
	{
		skillGroup.GET("", optional, skills.List)
		skillGroup.GET("/:id", skills.Get)
		skillGroup.POST("", protected, skills.Create)
		skillGroup.PUT("/:id", protected, skills.Replace)
		skillGroup.DELETE("/:id", protected, skills.Delete)
	}

	blogs := NewBlogHandler(store.Blogs, deps.Events)
	blogGroup := api.Group("/blogs")
	{
		blogGroup.GET("", blogs.List)
		blogGroup.GET("/:id", blogs.Get)
		blogGroup.POST("", protected, blogs.Create)
		blogGroup.PUT("/:id", protected, blogs.Replace)
		blogGroup.DELETE("/:id", protected, blogs.Delete)
	}

	profile := NewProfileHandler(store.Profile, deps.Events)
	api.GET("/profile", profile.Get)
	api.PUT("/profile", protected, profile.Upsert)

	if deps.Relay != nil {
		uploads := NewUploadHandler(deps.Relay, deps.Events)
		uploadGroup := api.Group("/upload", protected)
		{
			uploadGroup.POST("", uploads.UploadImage)
			uploadGroup.POST("/document", uploads.UploadDocument)
			uploadGroup.DELETE("", uploads.Delete)
		}
	}
}

func registerResource[M any](api *gin.RouterGroup, path string, h *ResourceHandler[M], protected gin.HandlerFunc) {
	group := api.Group(path)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("", protected, h.Create)
	group.PUT("/:id", protected, h.Replace)
	group.DELETE("/:id", protected, h.Delete)
}
