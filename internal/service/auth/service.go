// Package auth 实现接入方认证：API Key校验与角色令牌签发。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zqdfound/go-payments/internal/domain/entity"
	"github.com/zqdfound/go-payments/internal/domain/repository"
	apperrors "github.com/zqdfound/go-payments/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Service 认证服务
type Service struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	jwtExpiry time.Duration
}

// NewService 创建认证服务
func NewService(userRepo repository.UserRepository, jwtSecret string, jwtExpiry time.Duration) *Service {
	return &Service{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		jwtExpiry: jwtExpiry,
	}
}

// Claims 角色令牌载荷
type Claims struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// CreateUser 创建用户。明文secret只在这里返回一次。
func (s *Service) CreateUser(ctx context.Context, username, email, role string) (*entity.User, string, error) {
	apiKey := s.generateAPIKey()
	apiSecret := s.generateAPISecret()

	hashedSecret, err := s.hashSecret(apiSecret)
	if err != nil {
		return nil, "", err
	}

	if role == "" {
		role = "user"
	}

	user := &entity.User{
		Username:  username,
		Email:     email,
		APIKey:    apiKey,
		APISecret: hashedSecret,
		Role:      role,
		Status:    1,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	return user, apiSecret, nil
}

// ValidateAPIKey 验证API Key
func (s *Service) ValidateAPIKey(ctx context.Context, apiKey string) (*entity.User, error) {
	user, err := s.userRepo.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "invalid api key")
	}

	if user.Status != 1 {
		return nil, apperrors.New(apperrors.ErrForbidden, "user is disabled")
	}

	return user, nil
}

// IssueToken 验证API Key与Secret后签发角色令牌
func (s *Service) IssueToken(ctx context.Context, apiKey, apiSecret string) (string, error) {
	user, err := s.userRepo.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return "", apperrors.New(apperrors.ErrUnauthorized, "invalid api key or secret")
	}

	if user.Status != 1 {
		return "", apperrors.New(apperrors.ErrForbidden, "user is disabled")
	}

	if err := s.verifySecret(apiSecret, user.APISecret); err != nil {
		return "", apperrors.New(apperrors.ErrUnauthorized, "invalid api key or secret")
	}

	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, "failed to sign token", err)
	}
	return signed, nil
}

// ParseToken 解析并校验角色令牌
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

// generateAPIKey 生成API Key
func (s *Service) generateAPIKey() string {
	b := make([]byte, 32)
	rand.Read(b)
	return fmt.Sprintf("ak_%s", hex.EncodeToString(b))
}

// generateAPISecret 生成API Secret
func (s *Service) generateAPISecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// hashSecret 加密Secret
func (s *Service) hashSecret(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// verifySecret 验证Secret
func (s *Service) verifySecret(secret, hashedSecret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret))
}
