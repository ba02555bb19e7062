package entity

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Channel 支付渠道
type Channel string

const (
	// ChannelAlipay 支付宝
	ChannelAlipay Channel = "alipay"
	// ChannelWechatpay 微信APP支付
	ChannelWechatpay Channel = "wechatpay"
	// ChannelMppay 微信公众号支付
	ChannelMppay Channel = "mppay"
	// ChannelMinigrampay 微信小程序支付
	ChannelMinigrampay Channel = "minigrampay"
)

// Currency 货币类型
type Currency string

const (
	// CurrencyCNY 人民币
	CurrencyCNY Currency = "cny"
)

// Device 支付终端类型
type Device string

const (
	DeviceApp Device = "app"
	DeviceWap Device = "wap"
	DeviceWeb Device = "web"
)

// JSONMap JSON字段类型
type JSONMap map[string]interface{}

// Value 实现driver.Valuer接口
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan 实现sql.Scanner接口
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), m)
	}
	return json.Unmarshal(bytes, m)
}

// Charge 支付单实体。每个支付路径使用独立的表，表名由仓储层指定。
type Charge struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Channel   Channel   `gorm:"type:varchar(20);not null;index" json:"channel"`
	Currency  Currency  `gorm:"type:varchar(10);not null" json:"currency"`
	Device    Device    `gorm:"type:varchar(10);not null;default:'app'" json:"device"`
	ClientIP  string    `gorm:"type:varchar(45);not null" json:"client_ip"`
	Subject   string    `gorm:"type:varchar(256);not null" json:"subject"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Amount    float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	ReturnURL string    `gorm:"type:varchar(512)" json:"return_url,omitempty"`
	Openid    string    `gorm:"type:varchar(128)" json:"openid,omitempty"`
	Extra     JSONMap   `gorm:"type:json" json:"extra,omitempty"`
	Paid      bool      `gorm:"not null;default:false;index" json:"paid"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Refund 退款单实体。每次退款尝试都会留下一条记录，包括网关失败的尝试。
type Refund struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ChargeID  uint64    `gorm:"not null;index" json:"charge"`
	Amount    float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Reason    string    `gorm:"type:varchar(256);not null" json:"reason"`
	Success   bool      `gorm:"not null" json:"success"`
	Extra     JSONMap   `gorm:"type:json" json:"extra,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// User 接入方用户实体
type User struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	APIKey    string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"api_key"`
	APISecret string    `gorm:"type:varchar(128);not null" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Status    int8      `gorm:"type:tinyint;not null;default:1" json:"status"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}
