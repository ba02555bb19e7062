package payment

import (
	"context"
	"net/url"
	"strconv"

	"github.com/zqdfound/go-payments/internal/domain/entity"
	"github.com/zqdfound/go-payments/internal/payments"
	apperrors "github.com/zqdfound/go-payments/pkg/errors"
	"github.com/zqdfound/go-payments/pkg/logger"
	"go.uber.org/zap"
)

// 支付宝确认应答报文
var alipayAck = []byte("success")

// HandleAlipayWebhook 处理支付宝异步通知。
// 验签失败返回错误且不改动任何状态；交易状态非成功时只应答不对账，
// 网关收到确认应答后才会停止重发。
func (s *Service) HandleAlipayWebhook(ctx context.Context, path string, fields url.Values) ([]byte, error) {
	p, err := s.registry.Get(path)
	if err != nil {
		return nil, err
	}
	if p.Alipay == nil {
		return nil, apperrors.New(apperrors.ErrUnsupportedChannel, "alipay not configured for path: "+path)
	}

	if !p.Alipay.Verify(fields) {
		return nil, apperrors.New(apperrors.ErrInvalidSignature, "invalid alipay webhook signature")
	}

	if fields.Get("trade_status") != "TRADE_SUCCESS" {
		logger.Info("alipay webhook ignored",
			zap.String("path", path),
			zap.String("trade_status", fields.Get("trade_status")))
		return alipayAck, nil
	}

	orderID, err := strconv.ParseUint(fields.Get("out_trade_no"), 10, 64)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "invalid out_trade_no in alipay webhook")
	}

	if err := s.confirmCharge(ctx, p, orderID); err != nil {
		return nil, err
	}
	return alipayAck, nil
}

// HandleWechatWebhook 处理微信系渠道的异步通知。
// 应答报文必须是网关要求的XML确认格式。
func (s *Service) HandleWechatWebhook(ctx context.Context, path string, channel entity.Channel, fields map[string]string) ([]byte, error) {
	p, err := s.registry.Get(path)
	if err != nil {
		return nil, err
	}
	client := p.WechatClientFor(channel)
	if client == nil {
		return nil, apperrors.New(apperrors.ErrUnsupportedChannel,
			"channel not configured for path: "+string(channel))
	}

	if !client.SignVerify(fields) {
		return nil, apperrors.New(apperrors.ErrInvalidSignature, "invalid wechat webhook signature")
	}

	if fields["return_code"] != "SUCCESS" || fields["result_code"] != "SUCCESS" {
		logger.Info("wechat webhook ignored",
			zap.String("path", path),
			zap.String("return_code", fields["return_code"]),
			zap.String("result_code", fields["result_code"]))
		return client.Success(), nil
	}

	orderID, err := strconv.ParseUint(fields["out_trade_no"], 10, 64)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "invalid out_trade_no in wechat webhook")
	}

	if err := s.confirmCharge(ctx, p, orderID); err != nil {
		return nil, err
	}
	return client.Success(), nil
}

// ConfirmTestCharge 测试模式的手动确认入口。
// 测试模式下单不会收到真实网关通知，由运营方调用此接口模拟支付成功。
func (s *Service) ConfirmTestCharge(ctx context.Context, path string, chargeID uint64) (*entity.Charge, error) {
	p, err := s.registry.Get(path)
	if err != nil {
		return nil, err
	}
	charge, err := p.Charges.GetByID(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	if err := s.markPaid(ctx, p, charge); err != nil {
		return nil, err
	}
	return charge, nil
}

// confirmCharge 按商户订单号对账：置为已支付、落库、执行业务回调。
// 通知重放不会报错，回调可能被重复执行，幂等性由接入方回调自行保证。
func (s *Service) confirmCharge(ctx context.Context, p *payments.Payment, orderID uint64) error {
	charge, err := p.Charges.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	return s.markPaid(ctx, p, charge)
}

func (s *Service) markPaid(ctx context.Context, p *payments.Payment, charge *entity.Charge) error {
	charge.Paid = true
	if err := p.Charges.Save(ctx, charge); err != nil {
		return err
	}

	logger.Info("charge confirmed paid",
		zap.String("path", p.Path),
		zap.Uint64("charge_id", charge.ID),
		zap.String("channel", string(charge.Channel)))

	if err := p.ChargeHook(ctx, charge); err != nil {
		logger.Warn("charge hook failed",
			zap.String("path", p.Path),
			zap.Uint64("charge_id", charge.ID), zap.Error(err))
	}
	return nil
}
