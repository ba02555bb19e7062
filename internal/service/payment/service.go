// Package payment 实现支付编排引擎：下单分发、退款分发与异步通知对账。
package payment

import (
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zqdfound/go-payments/internal/payments"
)

// Service 支付编排服务。所有状态都来自注册表，本身无共享可变状态。
type Service struct {
	registry *payments.Registry
}

// NewService 创建支付编排服务
func NewService(registry *payments.Registry) *Service {
	return &Service{registry: registry}
}

// Registry 返回底层注册表
func (s *Service) Registry() *payments.Registry {
	return s.registry
}

// amountString 金额转为网关要求的两位小数字符串
func amountString(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// minorUnits 金额转为分，向上取整
func minorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Ceil().IntPart()
}

// normalizeIPv4 将客户端IP归一化为IPv4文本形式。
// 反向代理场景下常见::ffff:前缀的IPv4映射地址。
func normalizeIPv4(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ip
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.String()
	}
	return parsed.String()
}

// refundRequestNo 生成退款请求号
func refundRequestNo() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
