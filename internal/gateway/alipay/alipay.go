package alipay

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/smartwalle/alipay/v3"
	"github.com/zqdfound/go-payments/internal/gateway"
	apperrors "github.com/zqdfound/go-payments/pkg/errors"
)

// Config 支付宝客户端配置
type Config struct {
	AppID           string
	PrivateKey      string
	AlipayPublicKey string
	IsProduction    bool
}

// Client 支付宝网关客户端，封装官方网关协议
type Client struct {
	cli *alipay.Client
}

var _ gateway.AlipayClient = (*Client)(nil)

// New 创建支付宝客户端
func New(cfg Config) (*Client, error) {
	cli, err := alipay.New(cfg.AppID, cfg.PrivateKey, cfg.IsProduction)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGatewayRequest, "failed to create alipay client", err)
	}
	if cfg.AlipayPublicKey != "" {
		if err := cli.LoadAliPayPublicKey(cfg.AlipayPublicKey); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrGatewayRequest, "failed to load alipay public key", err)
		}
	}
	return &Client{cli: cli}, nil
}

// BuildAppPayRequest 构造APP支付请求
func (c *Client) BuildAppPayRequest(trade gateway.AlipayTrade) interface{} {
	var pay alipay.TradeAppPay
	pay.Subject = trade.Subject
	pay.OutTradeNo = trade.OutTradeNo
	pay.TotalAmount = trade.TotalAmount
	pay.Body = trade.Body
	pay.NotifyURL = trade.NotifyURL
	return pay
}

// BuildPagePayRequest 构造网页跳转支付请求
func (c *Client) BuildPagePayRequest(trade gateway.AlipayTrade) interface{} {
	var pay alipay.TradePagePay
	pay.Subject = trade.Subject
	pay.OutTradeNo = trade.OutTradeNo
	pay.TotalAmount = trade.TotalAmount
	pay.Body = trade.Body
	pay.ProductCode = trade.ProductCode
	pay.ReturnURL = trade.ReturnURL
	pay.NotifyURL = trade.NotifyURL
	return pay
}

// BuildRefundRequest 构造退款请求
func (c *Client) BuildRefundRequest(refund gateway.AlipayRefund) interface{} {
	var req alipay.TradeRefund
	req.OutTradeNo = refund.OutTradeNo
	req.RefundAmount = refund.RefundAmount
	req.RefundReason = refund.RefundReason
	req.OutRequestNo = refund.OutRequestNo
	return req
}

// GenerateRequestParams 生成客户端拉起支付所需的参数。
// APP支付返回签名后的参数串，网页支付返回跳转地址。
func (c *Client) GenerateRequestParams(req interface{}) (interface{}, error) {
	switch r := req.(type) {
	case alipay.TradeAppPay:
		params, err := c.cli.TradeAppPay(r)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrGatewayRequest, "failed to sign alipay app pay", err)
		}
		return params, nil
	case alipay.TradePagePay:
		payURL, err := c.cli.TradePagePay(r)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrGatewayRequest, "failed to build alipay page pay", err)
		}
		return payURL.String(), nil
	default:
		return nil, apperrors.New(apperrors.ErrGatewayRequest, "unknown alipay request type")
	}
}

// Execute 执行网关请求，返回原始响应
func (c *Client) Execute(ctx context.Context, req interface{}) (map[string]interface{}, error) {
	switch r := req.(type) {
	case alipay.TradeRefund:
		rsp, err := c.cli.TradeRefund(r)
		if err != nil {
			return nil, err
		}
		return toRawResponse(rsp)
	default:
		return nil, apperrors.New(apperrors.ErrGatewayRequest, "unknown alipay request type")
	}
}

// Verify 校验异步通知签名
func (c *Client) Verify(fields url.Values) bool {
	err := c.cli.VerifySign(fields)
	return err == nil
}

// toRawResponse 还原网关应答的原始结构，保留嵌套的响应节点
func toRawResponse(rsp interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(rsp)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGatewayRequest, "failed to decode alipay response", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGatewayRequest, "failed to decode alipay response", err)
	}
	return raw, nil
}
