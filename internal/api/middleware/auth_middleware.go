package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"folio/internal/auth"
)

const userIDKey = "userID"

// notAuthorizedMessage 对所有鉴权失败返回同一条消息，不暴露失败原因。
const notAuthorizedMessage = "Not authorized"

// AbortUnauthorized 中止请求并返回 401，中间件与处理器共用。
func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": notAuthorizedMessage})
}

// AuthMiddleware 校验访问令牌并将 userID 注入上下文。
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortUnauthorized(c)
			return
		}

		claims, err := authService.ValidateToken(rawToken)
		if err != nil {
			AbortUnauthorized(c)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// OptionalAuthMiddleware 在携带有效令牌时注入 userID，否则按匿名请求放行。
func OptionalAuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rawToken, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := authService.ValidateToken(rawToken); err == nil {
				c.Set(userIDKey, claims.UserID)
			}
		}
		c.Next()
	}
}

// UserIDFromContext 返回已认证请求的用户 ID。
func UserIDFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

// SetUserID is used by tests and by handlers that authenticate out of band.
func SetUserID(c *gin.Context, id string) {
	c.Set(userIDKey, id)
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	if strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}
