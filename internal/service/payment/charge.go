package payment

import (
	"context"
	"strconv"

	"github.com/zqdfound/go-payments/internal/domain/entity"
	"github.com/zqdfound/go-payments/internal/gateway"
	"github.com/zqdfound/go-payments/internal/payments"
	apperrors "github.com/zqdfound/go-payments/pkg/errors"
	"github.com/zqdfound/go-payments/pkg/logger"
	"go.uber.org/zap"
)

// 支付宝网页支付的固定产品码
const alipayPagePayProductCode = "FAST_INSTANT_TRADE_PAY"

// ChargeResult 下单结果。Charge在测试模式下为支付单实体，
// 否则为网关返回的客户端拉起支付参数。
type ChargeResult struct {
	IsTestMode bool           `json:"isTestMode"`
	Channel    entity.Channel `json:"channel"`
	WebhookURL string         `json:"webhookUrl,omitempty"`
	Charge     interface{}    `json:"charge"`
}

// Charge 创建支付单。先落库拿到支付单号，再按渠道分发到网关。
// 网关调用失败时错误向上传播，已落库的支付单保留为未支付状态，
// 商户订单号仍然有效，后续异步支付可以继续对账。
func (s *Service) Charge(ctx context.Context, path string, draft *entity.Charge) (*ChargeResult, error) {
	p, err := s.registry.Get(path)
	if err != nil {
		return nil, err
	}

	if err := p.Charges.Create(ctx, draft); err != nil {
		return nil, err
	}

	orderID := strconv.FormatUint(draft.ID, 10)

	if p.Test {
		prefix, err := s.registry.GetWebhook(path)
		if err != nil {
			return nil, err
		}
		logger.Info("test mode charge created",
			zap.String("path", path),
			zap.String("order_id", orderID),
			zap.String("channel", string(draft.Channel)))
		return &ChargeResult{
			IsTestMode: true,
			Channel:    draft.Channel,
			WebhookURL: prefix + "/pay/" + string(draft.Channel) + "/test/" + orderID,
			Charge:     draft,
		}, nil
	}

	prefix, err := s.registry.GetWebhook(path)
	if err != nil {
		return nil, err
	}
	notifyURL := prefix + "/pay/" + string(draft.Channel)

	switch draft.Channel {
	case entity.ChannelAlipay:
		return s.chargeAlipay(ctx, p.Alipay, draft, orderID, notifyURL)
	case entity.ChannelWechatpay:
		return s.chargeWechat(ctx, p, draft, orderID, notifyURL, true)
	case entity.ChannelMppay, entity.ChannelMinigrampay:
		return s.chargeWechat(ctx, p, draft, orderID, notifyURL, false)
	default:
		return nil, apperrors.New(apperrors.ErrUnsupportedPaymentMethod, "Unsupported payment method")
	}
}

// chargeAlipay 支付宝下单。web终端走网页跳转支付，其余终端走APP支付。
func (s *Service) chargeAlipay(ctx context.Context, client gateway.AlipayClient, draft *entity.Charge, orderID, notifyURL string) (*ChargeResult, error) {
	trade := gateway.AlipayTrade{
		Subject:     draft.Subject,
		OutTradeNo:  orderID,
		TotalAmount: amountString(draft.Amount),
		Body:        draft.Body,
		NotifyURL:   notifyURL,
	}

	var req interface{}
	if draft.Device == entity.DeviceWeb {
		trade.ReturnURL = draft.ReturnURL
		trade.ProductCode = alipayPagePayProductCode
		req = client.BuildPagePayRequest(trade)
	} else {
		req = client.BuildAppPayRequest(trade)
	}

	params, err := client.GenerateRequestParams(req)
	if err != nil {
		logger.Error("alipay charge request failed",
			zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	return &ChargeResult{
		IsTestMode: false,
		Channel:    draft.Channel,
		Charge:     params,
	}, nil
}

// chargeWechat 微信下单。APP支付走APP交易类型，公众号与小程序走JSAPI并携带openid。
func (s *Service) chargeWechat(ctx context.Context, p *payments.Payment, draft *entity.Charge, orderID, notifyURL string, app bool) (*ChargeResult, error) {
	client := p.WechatClientFor(draft.Channel)
	if client == nil {
		return nil, apperrors.New(apperrors.ErrUnsupportedPaymentMethod, "Unsupported payment method")
	}

	order := gateway.UnifiedOrder{
		Body:           draft.Subject,
		OutTradeNo:     orderID,
		TotalFee:       minorUnits(draft.Amount),
		SpbillCreateIP: normalizeIPv4(draft.ClientIP),
		NotifyURL:      notifyURL,
	}
	if app {
		order.TradeType = "APP"
	} else {
		order.TradeType = "JSAPI"
		order.Openid = draft.Openid
	}

	rsp, err := client.CreateUnifiedOrder(ctx, order)
	if err != nil {
		logger.Error("wechat unified order failed",
			zap.String("order_id", orderID),
			zap.String("channel", string(draft.Channel)), zap.Error(err))
		return nil, err
	}

	cfg, err := client.ConfigForPayment(rsp)
	if err != nil {
		return nil, err
	}

	return &ChargeResult{
		IsTestMode: false,
		Channel:    draft.Channel,
		Charge:     cfg,
	}, nil
}

// ListCharges 分页查询支付单
func (s *Service) ListCharges(ctx context.Context, path string, page, pageSize int) ([]*entity.Charge, int64, error) {
	p, err := s.registry.Get(path)
	if err != nil {
		return nil, 0, err
	}
	return p.Charges.List(ctx, page, pageSize)
}
