package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zqdfound/go-payments/internal/domain/entity"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uint64) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepo) GetByAPIKey(ctx context.Context, apiKey string) (*entity.User, error) {
	args := m.Called(ctx, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// TestIssueAndParseToken 测试令牌签发与解析
func TestIssueAndParseToken(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, "test-secret", time.Hour)

	var created *entity.User
	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*entity.User)
			created.ID = 1
		}).Return(nil)

	user, secret, err := svc.CreateUser(context.Background(), "merchant", "m@example.com", "finance")
	assert.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Equal(t, "finance", user.Role)

	repo.On("GetByAPIKey", mock.Anything, user.APIKey).Return(created, nil)

	token, err := svc.IssueToken(context.Background(), user.APIKey, secret)
	assert.NoError(t, err)

	claims, err := svc.ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), claims.UserID)
	assert.Equal(t, "finance", claims.Role)
}

// TestIssueToken_WrongSecret 错误的secret拒绝签发
func TestIssueToken_WrongSecret(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, "test-secret", time.Hour)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.User")).Return(nil)
	user, _, err := svc.CreateUser(context.Background(), "merchant", "m@example.com", "")
	assert.NoError(t, err)

	repo.On("GetByAPIKey", mock.Anything, user.APIKey).Return(user, nil)

	_, err = svc.IssueToken(context.Background(), user.APIKey, "wrong")
	assert.Error(t, err)
}

// TestParseToken_WrongKey 用错误密钥签名的令牌解析失败
func TestParseToken_WrongKey(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, "test-secret", time.Hour)
	other := NewService(repo, "other-secret", time.Hour)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*entity.User).ID = 2
		}).Return(nil)
	user, secret, err := svc.CreateUser(context.Background(), "merchant", "m@example.com", "")
	assert.NoError(t, err)

	repo.On("GetByAPIKey", mock.Anything, user.APIKey).Return(user, nil)
	token, err := svc.IssueToken(context.Background(), user.APIKey, secret)
	assert.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

// TestValidateAPIKey_Disabled 禁用用户拒绝访问
func TestValidateAPIKey_Disabled(t *testing.T) {
	repo := new(mockUserRepo)
	svc := NewService(repo, "test-secret", time.Hour)

	repo.On("GetByAPIKey", mock.Anything, "ak_x").
		Return(&entity.User{APIKey: "ak_x", Status: 0}, nil)

	_, err := svc.ValidateAPIKey(context.Background(), "ak_x")
	assert.Error(t, err)
}
