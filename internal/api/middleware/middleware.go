package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zqdfound/go-payments/internal/infrastructure/cache"
	"github.com/zqdfound/go-payments/internal/service/auth"
	apperrors "github.com/zqdfound/go-payments/pkg/errors"
	"github.com/zqdfound/go-payments/pkg/logger"
	"go.uber.org/zap"
)

// AuthMiddleware 认证中间件，校验接入方API Key
func AuthMiddleware(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		if apiKey == "" {
			c.JSON(401, gin.H{
				"code":    apperrors.ErrUnauthorized,
				"message": "missing api key",
			})
			c.Abort()
			return
		}

		user, err := authService.ValidateAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			c.JSON(401, gin.H{
				"code":    apperrors.ErrUnauthorized,
				"message": "invalid api key",
			})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)

		c.Next()
	}
}

// RoleMiddleware 角色中间件，校验角色令牌并检查角色是否在允许列表中
func RoleMiddleware(authService *auth.Service, allowedRoles []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		token = strings.TrimPrefix(token, "Bearer ")

		if token == "" {
			c.JSON(401, gin.H{
				"code":    apperrors.ErrUnauthorized,
				"message": "missing token",
			})
			c.Abort()
			return
		}

		claims, err := authService.ParseToken(token)
		if err != nil {
			c.JSON(401, gin.H{
				"code":    apperrors.ErrUnauthorized,
				"message": "invalid token",
			})
			c.Abort()
			return
		}

		allowed := false
		for _, role := range allowedRoles {
			if claims.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			c.JSON(403, gin.H{
				"code":    apperrors.ErrForbidden,
				"message": "role not allowed",
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("api request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// CORSMiddleware CORS中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-API-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RecoveryMiddleware 恢复中间件
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
				)

				c.JSON(500, gin.H{
					"code":    apperrors.ErrInternalServer,
					"message": "internal server error",
				})
			}
		}()

		c.Next()
	}
}

// RateLimitMiddleware API限流中间件
// 基于Redis实现滑动窗口限流
func RateLimitMiddleware(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取用户ID，如果未认证则使用IP地址
		var identifier string
		if userID, exists := c.Get("user_id"); exists {
			identifier = fmt.Sprintf("user:%v", userID)
		} else {
			identifier = fmt.Sprintf("ip:%s", c.ClientIP())
		}

		key := fmt.Sprintf("ratelimit:%s", identifier)

		ctx := c.Request.Context()
		count, err := cache.Incr(ctx, key)
		if err != nil {
			// Redis错误不应该阻止请求
			logger.Error("rate limit redis error", zap.Error(err))
			c.Next()
			return
		}

		// 第一次请求时设置过期时间
		if count == 1 {
			cache.Expire(ctx, key, window)
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max(0, limit-int(count))))

		if count > int64(limit) {
			logger.Warn("rate limit exceeded",
				zap.String("identifier", identifier),
				zap.Int64("count", count),
				zap.Int("limit", limit),
			)

			c.JSON(429, gin.H{
				"code":    apperrors.ErrTooManyRequests,
				"message": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// max 返回两个整数中的较大值
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
