package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"folio/internal/api/middleware"
	"folio/internal/auth"
	"folio/internal/metrics"
	"folio/internal/repository"
	"folio/internal/throttle"
)

// invalidCredentialsMessage 对未知用户与错误密码返回相同内容。
const invalidCredentialsMessage = "Invalid credentials"

// AuthHandler 处理注册、登录与当前用户查询。
type AuthHandler struct {
	users         *repository.UserRepository
	authService   *auth.AuthService
	limiter       throttle.Limiter
	allowRegister bool
}

// NewAuthHandler 构造认证处理器。limiter 为 nil 时不限流。
func NewAuthHandler(users *repository.UserRepository, authService *auth.AuthService, limiter throttle.Limiter, allowRegister bool) *AuthHandler {
	return &AuthHandler{
		users:         users,
		authService:   authService,
		limiter:       limiter,
		allowRegister: allowRegister,
	}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=72"`
}

type authResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

// Register 创建新账号并直接签发令牌。
func (h *AuthHandler) Register(c *gin.Context) {
	if !h.allowRegister {
		Forbidden(c, "Registration is disabled")
		return
	}

	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.String("username", username))

	hashed, err := h.authService.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		// binding 的 max 按字符计数，bcrypt 上限按字节。
		ValidationFailed(c, []FieldError{{Field: "password", Message: "password must be at most 72 bytes"}})
		return
	}
	if err != nil {
		logger.Error("hash password failed", slog.Any("error", err))
		Internal(c, "Server Error")
		return
	}

	user, err := h.users.Create(ctx, username, hashed)
	if errors.Is(err, repository.ErrUserExists) {
		logger.Info("register conflict: user already exists")
		Conflict(c, "User already exists")
		return
	}
	if err != nil {
		logger.Error("create user failed", slog.Any("error", err))
		Internal(c, "Server Error")
		return
	}

	token, err := h.authService.IssueToken(user.ID)
	if err != nil {
		logger.Error("issue token failed", slog.Any("error", err))
		Internal(c, "Server Error")
		return
	}

	logger.Info("user registered", slog.String("user_id", user.ID))
	Created(c, authResponse{ID: user.ID, Username: user.Username, Token: token})
}

// Login 校验口令并返回令牌。
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.String("username", username))

	if h.limiter != nil {
		// 限流存储故障时放行，不阻塞登录。
		if allowed, err := h.limiter.Allow(ctx, c.ClientIP(), username); err != nil {
			logger.Warn("login rate counter failed", slog.Any("error", err))
		} else if !allowed {
			metrics.ObserveLogin(metrics.LoginThrottled)
			TooManyRequests(c, "Too many login attempts, try again later")
			return
		}
		if locked, err := h.limiter.Locked(ctx, username); err != nil {
			logger.Warn("login lock lookup failed", slog.Any("error", err))
		} else if locked {
			metrics.ObserveLogin(metrics.LoginThrottled)
			TooManyRequests(c, "Account temporarily locked")
			return
		}
	}

	user, err := h.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		logger.Info("login failed: user not found")
		h.authService.CheckPasswordHash(req.Password, "")
		h.recordFailure(c, username)
		BadRequest(c, invalidCredentialsMessage)
		return
	case err != nil:
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c, "Server Error")
		return
	}

	if !h.authService.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Info("login failed: password mismatch", slog.String("user_id", user.ID))
		h.recordFailure(c, username)
		BadRequest(c, invalidCredentialsMessage)
		return
	}

	if h.limiter != nil {
		if err := h.limiter.Reset(ctx, username); err != nil {
			logger.Warn("reset login failures failed", slog.Any("error", err))
		}
	}

	token, err := h.authService.IssueToken(user.ID)
	if err != nil {
		logger.Error("issue token failed", slog.Any("error", err))
		Internal(c, "Server Error")
		return
	}

	metrics.ObserveLogin(metrics.LoginSuccess)
	OK(c, authResponse{ID: user.ID, Username: user.Username, Token: token})
}

// Me 返回当前令牌对应的账号。
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		middleware.AbortUnauthorized(c)
		return
	}
	user, err := h.users.FindByID(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		middleware.AbortUnauthorized(c)
		return
	}
	if err != nil {
		middleware.LoggerFromContext(c).Error("load current user failed", slog.Any("error", err))
		Internal(c, "Server Error")
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Data: authResponse{ID: user.ID, Username: user.Username}})
}

func (h *AuthHandler) recordFailure(c *gin.Context, username string) {
	metrics.ObserveLogin(metrics.LoginFailure)
	if h.limiter == nil {
		return
	}
	if err := h.limiter.RecordFailure(c.Request.Context(), username); err != nil {
		middleware.LoggerFromContext(c).Warn("record login failure failed", slog.Any("error", err))
	}
}
