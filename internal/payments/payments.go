// Package payments 维护支付路径的配置与注册表。
// 每个支付路径对应一套独立的渠道配置、仓储和回调钩子。
package payments

import (
	"context"
	"fmt"
	"sync"

	"github.com/zqdfound/go-payments/internal/domain/entity"
	"github.com/zqdfound/go-payments/internal/domain/repository"
	"github.com/zqdfound/go-payments/internal/gateway"
	apperrors "github.com/zqdfound/go-payments/pkg/errors"
)

// ChargeHook 支付成功回调。在支付单落库之后、应答网关之前执行。
type ChargeHook func(ctx context.Context, charge *entity.Charge) error

// RefundHook 退款回调。在退款单落库之后执行，执行完毕才返回退款结果。
// 回调同时收到退款单与对应的支付单，接入方无需回查。
type RefundHook func(ctx context.Context, refund *entity.Refund, charge *entity.Charge) error

// Payment 一个支付路径的完整配置
type Payment struct {
	// Path 支付路径标识，决定表名与路由前缀
	Path string

	// Test 测试模式。开启后下单不请求网关，返回模拟确认地址。
	Test bool

	// Channels 该路径启用的支付渠道
	Channels []entity.Channel

	// Currencies 该路径支持的货币
	Currencies []entity.Currency

	// Charges/Refunds 该路径的仓储
	Charges repository.ChargeRepository
	Refunds repository.RefundRepository

	// ChargeHook 支付成功后的业务回调，必填
	ChargeHook ChargeHook

	// RefundHook 退款回调。为空表示该路径不开放退款。
	RefundHook RefundHook

	// 各渠道的网关客户端。只需为启用的渠道提供。
	Alipay      gateway.AlipayClient
	Wechatpay   gateway.WechatClient
	Mppay       gateway.WechatClient
	Minigrampay gateway.WechatClient
}

// WechatClientFor 返回渠道对应的微信客户端。三个微信渠道各自独立配置。
func (p *Payment) WechatClientFor(channel entity.Channel) gateway.WechatClient {
	switch channel {
	case entity.ChannelWechatpay:
		return p.Wechatpay
	case entity.ChannelMppay:
		return p.Mppay
	case entity.ChannelMinigrampay:
		return p.Minigrampay
	default:
		return nil
	}
}

// Registry 支付路径注册表。构造一次后由服务层持有，不使用包级全局状态。
type Registry struct {
	mu       sync.RWMutex
	payments map[string]*Payment
	webhooks map[string]string
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{
		payments: make(map[string]*Payment),
		webhooks: make(map[string]string),
	}
}

// Register 注册支付路径。路径重复或配置缺失会返回错误。
func (r *Registry) Register(p *Payment) error {
	if p.Path == "" {
		return apperrors.New(apperrors.ErrInvalidParam, "payment path is required")
	}
	if len(p.Channels) == 0 {
		return apperrors.New(apperrors.ErrInvalidParam, "payment has no channels: "+p.Path)
	}
	if len(p.Currencies) == 0 {
		return apperrors.New(apperrors.ErrInvalidParam, "payment has no currencies: "+p.Path)
	}
	if p.Charges == nil || p.Refunds == nil {
		return apperrors.New(apperrors.ErrInvalidParam, "payment repositories not configured: "+p.Path)
	}
	if p.ChargeHook == nil {
		return apperrors.New(apperrors.ErrInvalidParam, "payment charge hook not configured: "+p.Path)
	}
	for _, c := range p.Channels {
		switch c {
		case entity.ChannelAlipay:
			if p.Alipay == nil {
				return apperrors.New(apperrors.ErrInvalidParam,
					fmt.Sprintf("payment %s enables %s without a client", p.Path, c))
			}
		case entity.ChannelWechatpay, entity.ChannelMppay, entity.ChannelMinigrampay:
			if p.WechatClientFor(c) == nil {
				return apperrors.New(apperrors.ErrInvalidParam,
					fmt.Sprintf("payment %s enables %s without a client", p.Path, c))
			}
		default:
			return apperrors.New(apperrors.ErrUnsupportedChannel, "unknown channel: "+string(c))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.Path]; ok {
		return apperrors.New(apperrors.ErrInvalidParam, "payment path already registered: "+p.Path)
	}
	r.payments[p.Path] = p
	return nil
}

// Get 按路径查找支付配置
func (r *Registry) Get(path string) (*Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[path]
	if !ok {
		return nil, apperrors.New(apperrors.ErrPathNotRegistered, "payment path not registered: "+path)
	}
	return p, nil
}

// Paths 已注册的支付路径
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, 0, len(r.payments))
	for p := range r.payments {
		paths = append(paths, p)
	}
	return paths
}

// AddWebhook 记录支付路径的通知地址前缀。首次写入生效，重复写入忽略。
func (r *Registry) AddWebhook(path, prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.webhooks[path]; ok {
		return
	}
	r.webhooks[path] = prefix
}

// GetWebhook 查询支付路径的通知地址前缀
func (r *Registry) GetWebhook(path string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prefix, ok := r.webhooks[path]
	if !ok {
		return "", apperrors.New(apperrors.ErrPathNotRegistered, "webhook prefix not registered: "+path)
	}
	return prefix, nil
}
