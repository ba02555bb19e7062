// Package wechat 实现微信支付v2网关客户端（统一下单、退款、通知验签）。
// 官方v3 SDK不覆盖v2的MD5/XML协议，这里按商户平台v2文档自行实现。
package wechat

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zqdfound/go-payments/internal/gateway"
	apperrors "github.com/zqdfound/go-payments/pkg/errors"
)

const (
	defaultGateway = "https://api.mch.weixin.qq.com"
	defaultTimeout = 12 * time.Second

	// TradeTypeApp APP支付
	TradeTypeApp = "APP"
	// TradeTypeJSAPI 公众号/小程序支付
	TradeTypeJSAPI = "JSAPI"
)

// Config 微信支付客户端配置
type Config struct {
	AppID  string
	MchID  string
	APIKey string

	// Gateway 网关地址，默认为商户平台生产地址
	Gateway string

	// CertFile/KeyFile 商户API证书，退款接口必须
	CertFile string
	KeyFile  string

	Timeout time.Duration
}

// Client 微信支付网关客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
	refundHTTP *http.Client
}

var _ gateway.WechatClient = (*Client)(nil)

// New 创建微信支付客户端
func New(cfg Config) (*Client, error) {
	if cfg.AppID == "" || cfg.MchID == "" || cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.ErrGatewayRequest, "wechat config incomplete")
	}
	if cfg.Gateway == "" {
		cfg.Gateway = defaultGateway
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}

	// 退款接口走双向TLS
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrGatewayRequest, "failed to load wechat merchant cert", err)
		}
		c.refundHTTP = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
			},
		}
	}

	return c, nil
}

// CreateUnifiedOrder 统一下单
func (c *Client) CreateUnifiedOrder(ctx context.Context, order gateway.UnifiedOrder) (map[string]string, error) {
	params := map[string]string{
		"appid":            c.cfg.AppID,
		"mch_id":           c.cfg.MchID,
		"nonce_str":        nonce(),
		"body":             order.Body,
		"out_trade_no":     order.OutTradeNo,
		"total_fee":        strconv.FormatInt(order.TotalFee, 10),
		"spbill_create_ip": order.SpbillCreateIP,
		"notify_url":       order.NotifyURL,
		"trade_type":       order.TradeType,
	}
	if order.Openid != "" {
		params["openid"] = order.Openid
	}
	params["sign"] = Sign(params, c.cfg.APIKey)

	rsp, err := c.post(ctx, c.httpClient, "/pay/unifiedorder", params)
	if err != nil {
		return nil, err
	}
	if rsp["return_code"] != "SUCCESS" {
		return nil, apperrors.New(apperrors.ErrGatewayRequest, "wechat unified order rejected: "+rsp["return_msg"])
	}
	if rsp["result_code"] != "SUCCESS" {
		return nil, apperrors.New(apperrors.ErrGatewayRequest,
			fmt.Sprintf("wechat unified order failed: %s %s", rsp["err_code"], rsp["err_code_des"]))
	}
	return rsp, nil
}

// ConfigForPayment 根据下单结果生成客户端支付配置
func (c *Client) ConfigForPayment(order map[string]string) (map[string]string, error) {
	prepayID := order["prepay_id"]
	if prepayID == "" {
		return nil, apperrors.New(apperrors.ErrGatewayRequest, "missing prepay_id in unified order")
	}
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	switch order["trade_type"] {
	case TradeTypeApp:
		cfg := map[string]string{
			"appid":     c.cfg.AppID,
			"partnerid": c.cfg.MchID,
			"prepayid":  prepayID,
			"package":   "Sign=WXPay",
			"noncestr":  nonce(),
			"timestamp": ts,
		}
		cfg["sign"] = Sign(cfg, c.cfg.APIKey)
		return cfg, nil
	case TradeTypeJSAPI:
		cfg := map[string]string{
			"appId":     c.cfg.AppID,
			"timeStamp": ts,
			"nonceStr":  nonce(),
			"package":   "prepay_id=" + prepayID,
			"signType":  "MD5",
		}
		cfg["paySign"] = Sign(cfg, c.cfg.APIKey)
		return cfg, nil
	default:
		return nil, apperrors.New(apperrors.ErrGatewayRequest, "unknown trade type: "+order["trade_type"])
	}
}

// Refund 申请退款。网关业务层的成败由调用方根据应答字段判断，
// 这里只在传输或报文层面失败时返回错误。
func (c *Client) Refund(ctx context.Context, refund gateway.WechatRefund) (map[string]string, error) {
	if c.refundHTTP == nil {
		return nil, apperrors.New(apperrors.ErrGatewayRequest, "wechat merchant cert not configured")
	}
	params := map[string]string{
		"appid":         c.cfg.AppID,
		"mch_id":        c.cfg.MchID,
		"nonce_str":     nonce(),
		"out_trade_no":  refund.OutTradeNo,
		"out_refund_no": refund.OutRefundNo,
		"total_fee":     strconv.FormatInt(refund.TotalFee, 10),
		"refund_fee":    strconv.FormatInt(refund.RefundFee, 10),
	}
	params["sign"] = Sign(params, c.cfg.APIKey)

	return c.post(ctx, c.refundHTTP, "/secapi/pay/refund", params)
}

// SignVerify 校验异步通知签名
func (c *Client) SignVerify(fields map[string]string) bool {
	given := fields["sign"]
	if given == "" {
		return false
	}
	return Sign(fields, c.cfg.APIKey) == given
}

// Success 网关要求的确认应答报文
func (c *Client) Success() []byte {
	return []byte("<xml><return_code><![CDATA[SUCCESS]]></return_code><return_msg><![CDATA[OK]]></return_msg></xml>")
}

// post 发送XML请求并解析应答
func (c *Client) post(ctx context.Context, client *http.Client, path string, params map[string]string) (map[string]string, error) {
	body := EncodeXML(params)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Gateway+path, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGatewayRequest, "failed to build wechat request", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	rsp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGatewayRequest, "wechat request failed", err)
	}
	defer rsp.Body.Close()

	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGatewayRequest, "failed to read wechat response", err)
	}
	fields, err := DecodeXML(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGatewayRequest, "failed to decode wechat response", err)
	}
	return fields, nil
}

// Sign 计算v2协议MD5签名。空值与sign字段本身不参与签名。
func Sign(params map[string]string, apiKey string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == "sign" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
		sb.WriteByte('&')
	}
	sb.WriteString("key=")
	sb.WriteString(apiKey)

	sum := md5.Sum([]byte(sb.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// nonce 生成随机串，v2协议要求不超过32位
func nonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
