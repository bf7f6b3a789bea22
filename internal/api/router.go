package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"folio/internal/api/middleware"
	"folio/internal/metrics"
)

const healthTimeout = 2 * time.Second

// Pinger 用于健康检查，*sql.DB 与 storage.Client 均实现了它。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewRouter 构建带全局中间件的 Gin 引擎。origins 为空时回显请求来源。
// 默认不信任任何代理，ClientIP 取连接对端地址；部署在反向代理后时由调用方设置 SetTrustedProxies。
func NewRouter(logger *slog.Logger, origins []string) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	router.HandleMethodNotAllowed = false
	_ = router.SetTrustedProxies(nil)
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware(),
		middleware.SecurityHeadersMiddleware(),
		CORSMiddleware(origins),
	)

	router.NoRoute(func(c *gin.Context) {
		NotFound(c, "Route not found")
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}

// CORSMiddleware 使用 rs/cors 处理跨域，预检请求在此直接结束。
func CORSMiddleware(origins []string) gin.HandlerFunc {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.CorrelationIDHeader},
		ExposedHeaders:   []string{middleware.CorrelationIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}
	handler := cors.New(opts)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			handler.HandlerFunc(c.Writer, c.Request)
			c.Abort()
			return
		}
		handler.HandlerFunc(c.Writer, c.Request)
		c.Next()
	}
}

// RegisterHealth 注册 /health，依次检查各依赖。
func RegisterHealth(router *gin.Engine, checks map[string]Pinger) {
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.PingContext(ctx); err != nil {
				middleware.LoggerFromContext(c).Warn("health check failed",
					slog.String("dependency", name),
					slog.Any("error", err),
				)
				results[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "up"
		}
		c.JSON(status, gin.H{"success": status == http.StatusOK, "checks": results})
	})
}
