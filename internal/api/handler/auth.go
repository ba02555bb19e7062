package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zqdfound/go-payments/internal/service/auth"
	apperrors "github.com/zqdfound/go-payments/pkg/errors"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// TokenRequest 角色令牌请求
type TokenRequest struct {
	APIKey    string `json:"api_key" binding:"required"`
	APISecret string `json:"api_secret" binding:"required"`
}

// IssueToken 签发角色令牌
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{
			"code":    apperrors.ErrInvalidParam,
			"message": err.Error(),
		})
		return
	}

	token, err := h.authService.IssueToken(c.Request.Context(), req.APIKey, req.APISecret)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    apperrors.ErrSuccess,
		"message": "success",
		"data":    gin.H{"token": token},
	})
}
