package repository

import (
	"context"

	"github.com/zqdfound/go-payments/internal/domain/entity"
)

// ChargeRepository 支付单仓储接口。每个支付路径对应一张独立的表。
type ChargeRepository interface {
	Create(ctx context.Context, charge *entity.Charge) error
	GetByID(ctx context.Context, id uint64) (*entity.Charge, error)
	Save(ctx context.Context, charge *entity.Charge) error
	List(ctx context.Context, page, pageSize int) ([]*entity.Charge, int64, error)
}

// RefundRepository 退款单仓储接口
type RefundRepository interface {
	Create(ctx context.Context, refund *entity.Refund) error
	List(ctx context.Context, page, pageSize int) ([]*entity.Refund, int64, error)
}

// UserRepository 用户仓储接口
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint64) (*entity.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
}
