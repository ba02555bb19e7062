package repository

import (
	"context"
	"fmt"

	"github.com/zqdfound/go-payments/internal/domain/entity"
	apperrors "github.com/zqdfound/go-payments/pkg/errors"
	"gorm.io/gorm"
)

// ChargeTableName 支付单表名，按支付路径隔离
func ChargeTableName(path string) string {
	return "__payments_charge_" + path
}

// RefundTableName 退款单表名，按支付路径隔离
func RefundTableName(path string) string {
	return "__payments_refund_" + path
}

// MySQLChargeRepository MySQL支付单仓储实现。
// 字段校验（必填、枚举、默认值）在入库前由仓储完成。
type MySQLChargeRepository struct {
	db         *gorm.DB
	table      string
	channels   map[entity.Channel]bool
	currencies map[entity.Currency]bool
}

// NewMySQLChargeRepository 创建MySQL支付单仓储
func NewMySQLChargeRepository(db *gorm.DB, path string, channels []entity.Channel, currencies []entity.Currency) *MySQLChargeRepository {
	r := &MySQLChargeRepository{
		db:         db,
		table:      ChargeTableName(path),
		channels:   make(map[entity.Channel]bool, len(channels)),
		currencies: make(map[entity.Currency]bool, len(currencies)),
	}
	for _, c := range channels {
		r.channels[c] = true
	}
	for _, c := range currencies {
		r.currencies[c] = true
	}
	return r
}

// AutoMigrate 迁移表结构
func (r *MySQLChargeRepository) AutoMigrate() error {
	return r.db.Table(r.table).AutoMigrate(&entity.Charge{})
}

func (r *MySQLChargeRepository) Create(ctx context.Context, charge *entity.Charge) error {
	if err := r.validate(charge); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Table(r.table).Create(charge).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseInsert, "failed to create charge", err)
	}
	return nil
}

func (r *MySQLChargeRepository) GetByID(ctx context.Context, id uint64) (*entity.Charge, error) {
	var charge entity.Charge
	if err := r.db.WithContext(ctx).Table(r.table).First(&charge, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.ErrChargeNotFound, "Charge not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, "failed to get charge", err)
	}
	return &charge, nil
}

func (r *MySQLChargeRepository) Save(ctx context.Context, charge *entity.Charge) error {
	if err := r.db.WithContext(ctx).Table(r.table).Save(charge).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseUpdate, "failed to save charge", err)
	}
	return nil
}

func (r *MySQLChargeRepository) List(ctx context.Context, page, pageSize int) ([]*entity.Charge, int64, error) {
	var charges []*entity.Charge
	var total int64

	db := r.db.WithContext(ctx).Table(r.table)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrDatabaseQuery, "failed to count charges", err)
	}

	offset := (page - 1) * pageSize
	if err := db.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&charges).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrDatabaseQuery, "failed to list charges", err)
	}

	return charges, total, nil
}

// validate 按配置的渠道/货币集合校验入库字段
func (r *MySQLChargeRepository) validate(charge *entity.Charge) error {
	if !r.channels[charge.Channel] {
		return apperrors.New(apperrors.ErrInvalidParam, fmt.Sprintf("channel %q not enabled", charge.Channel))
	}
	if !r.currencies[charge.Currency] {
		return apperrors.New(apperrors.ErrInvalidParam, fmt.Sprintf("currency %q not enabled", charge.Currency))
	}
	if charge.Device == "" {
		charge.Device = entity.DeviceApp
	}
	switch charge.Device {
	case entity.DeviceApp, entity.DeviceWap, entity.DeviceWeb:
	default:
		return apperrors.New(apperrors.ErrInvalidParam, fmt.Sprintf("device %q not allowed", charge.Device))
	}
	if charge.ClientIP == "" {
		return apperrors.New(apperrors.ErrInvalidParam, "client_ip is required")
	}
	if charge.Subject == "" {
		return apperrors.New(apperrors.ErrInvalidParam, "subject is required")
	}
	if charge.Body == "" {
		return apperrors.New(apperrors.ErrInvalidParam, "body is required")
	}
	if charge.Amount <= 0 {
		return apperrors.New(apperrors.ErrInvalidParam, "amount must be positive")
	}
	if charge.Openid == "" &&
		(charge.Channel == entity.ChannelMppay || charge.Channel == entity.ChannelMinigrampay) {
		return apperrors.New(apperrors.ErrInvalidParam, "openid is required for "+string(charge.Channel))
	}
	return nil
}

// MySQLRefundRepository MySQL退款单仓储实现
type MySQLRefundRepository struct {
	db    *gorm.DB
	table string
}

// NewMySQLRefundRepository 创建MySQL退款单仓储
func NewMySQLRefundRepository(db *gorm.DB, path string) *MySQLRefundRepository {
	return &MySQLRefundRepository{db: db, table: RefundTableName(path)}
}

// AutoMigrate 迁移表结构
func (r *MySQLRefundRepository) AutoMigrate() error {
	return r.db.Table(r.table).AutoMigrate(&entity.Refund{})
}

func (r *MySQLRefundRepository) Create(ctx context.Context, refund *entity.Refund) error {
	if err := r.db.WithContext(ctx).Table(r.table).Create(refund).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseInsert, "failed to create refund", err)
	}
	return nil
}

func (r *MySQLRefundRepository) List(ctx context.Context, page, pageSize int) ([]*entity.Refund, int64, error) {
	var refunds []*entity.Refund
	var total int64

	db := r.db.WithContext(ctx).Table(r.table)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrDatabaseQuery, "failed to count refunds", err)
	}

	offset := (page - 1) * pageSize
	if err := db.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&refunds).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrDatabaseQuery, "failed to list refunds", err)
	}

	return refunds, total, nil
}

// MySQLUserRepository MySQL用户仓储实现
type MySQLUserRepository struct {
	db *gorm.DB
}

// NewMySQLUserRepository 创建MySQL用户仓储
func NewMySQLUserRepository(db *gorm.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

func (r *MySQLUserRepository) Create(ctx context.Context, user *entity.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseInsert, "failed to create user", err)
	}
	return nil
}

func (r *MySQLUserRepository) GetByID(ctx context.Context, id uint64) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.ErrNotFound, "user not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, "failed to get user", err)
	}
	return &user, nil
}

func (r *MySQLUserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.ErrNotFound, "user not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, "failed to get user", err)
	}
	return &user, nil
}

func (r *MySQLUserRepository) Update(ctx context.Context, user *entity.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseUpdate, "failed to update user", err)
	}
	return nil
}
