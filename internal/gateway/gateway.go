// Package gateway 定义支付网关客户端的抽象能力。
// 引擎只依赖这里的接口；具体实现分别封装支付宝与微信支付的协议细节。
package gateway

import (
	"context"
	"net/url"
)

// AlipayTrade 支付宝下单字段
type AlipayTrade struct {
	Subject     string
	OutTradeNo  string
	TotalAmount string
	Body        string
	ReturnURL   string
	NotifyURL   string
	ProductCode string
}

// AlipayRefund 支付宝退款字段
type AlipayRefund struct {
	OutTradeNo   string
	RefundAmount string
	RefundReason string
	OutRequestNo string
}

// AlipayClient 支付宝网关客户端
type AlipayClient interface {
	// BuildAppPayRequest 构造APP支付请求
	BuildAppPayRequest(trade AlipayTrade) interface{}

	// BuildPagePayRequest 构造网页跳转支付请求
	BuildPagePayRequest(trade AlipayTrade) interface{}

	// BuildRefundRequest 构造退款请求
	BuildRefundRequest(refund AlipayRefund) interface{}

	// GenerateRequestParams 生成客户端拉起支付所需的参数
	GenerateRequestParams(req interface{}) (interface{}, error)

	// Execute 执行网关请求，返回原始响应
	Execute(ctx context.Context, req interface{}) (map[string]interface{}, error)

	// Verify 校验异步通知签名
	Verify(fields url.Values) bool
}

// UnifiedOrder 微信统一下单参数
type UnifiedOrder struct {
	Body           string
	OutTradeNo     string
	TotalFee       int64
	SpbillCreateIP string
	NotifyURL      string
	TradeType      string
	Openid         string
}

// WechatRefund 微信退款参数
type WechatRefund struct {
	OutTradeNo  string
	OutRefundNo string
	TotalFee    int64
	RefundFee   int64
}

// WechatClient 微信支付网关客户端，覆盖APP支付、公众号支付与小程序支付。
type WechatClient interface {
	// CreateUnifiedOrder 统一下单
	CreateUnifiedOrder(ctx context.Context, order UnifiedOrder) (map[string]string, error)

	// ConfigForPayment 根据下单结果生成客户端支付配置
	ConfigForPayment(order map[string]string) (map[string]string, error)

	// Refund 申请退款，返回网关原始应答
	Refund(ctx context.Context, refund WechatRefund) (map[string]string, error)

	// SignVerify 校验异步通知签名
	SignVerify(fields map[string]string) bool

	// Success 网关要求的确认应答报文
	Success() []byte
}
