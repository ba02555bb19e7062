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

// Refund 创建退款单。
// 配置类错误（未开放退款、支付单不存在、渠道不支持）直接返回错误；
// 网关执行失败不返回错误，而是落库为success=false的退款记录，
// 失败信息保留在extra中供人工跟进。
func (s *Service) Refund(ctx context.Context, path string, chargeID uint64, reason string) (*entity.Refund, error) {
	p, err := s.registry.Get(path)
	if err != nil {
		return nil, err
	}
	if p.RefundHook == nil {
		return nil, apperrors.New(apperrors.ErrPaymentDisabled, "Payment disabled")
	}

	charge, err := p.Charges.GetByID(ctx, chargeID)
	if err != nil {
		return nil, err
	}

	refund := &entity.Refund{
		ChargeID: charge.ID,
		Amount:   charge.Amount,
		Reason:   reason,
	}

	if p.Test {
		refund.Success = true
		refund.Extra = entity.JSONMap{"isTestMode": true}
	} else {
		switch charge.Channel {
		case entity.ChannelAlipay:
			s.refundAlipay(ctx, p.Alipay, charge, refund)
		case entity.ChannelWechatpay, entity.ChannelMppay, entity.ChannelMinigrampay:
			client := p.WechatClientFor(charge.Channel)
			if client == nil {
				return nil, apperrors.New(apperrors.ErrUnsupportedRefundMethod, "Unsupported refund method")
			}
			s.refundWechat(ctx, client, charge, refund)
		default:
			return nil, apperrors.New(apperrors.ErrUnsupportedRefundMethod, "Unsupported refund method")
		}
	}

	if err := p.Refunds.Create(ctx, refund); err != nil {
		return nil, err
	}

	s.invokeRefundHook(ctx, p, refund, charge)

	return refund, nil
}

// refundAlipay 支付宝退款。业务成败取决于应答内嵌的code是否为10000。
func (s *Service) refundAlipay(ctx context.Context, client gateway.AlipayClient, charge *entity.Charge, refund *entity.Refund) {
	req := client.BuildRefundRequest(gateway.AlipayRefund{
		OutTradeNo:   strconv.FormatUint(charge.ID, 10),
		RefundAmount: amountString(charge.Amount),
		RefundReason: refund.Reason,
		OutRequestNo: refundRequestNo(),
	})

	rsp, err := client.Execute(ctx, req)
	if err != nil {
		logger.Warn("alipay refund request failed",
			zap.Uint64("charge_id", charge.ID), zap.Error(err))
		refund.Success = false
		refund.Extra = entity.JSONMap{"error": err.Error()}
		return
	}

	refund.Extra = entity.JSONMap(rsp)
	if inner, ok := rsp["alipay_trade_refund_response"].(map[string]interface{}); ok {
		code, _ := inner["code"].(string)
		refund.Success = code == "10000"
	}
}

// refundWechat 微信退款。业务成败取决于return_code与result_code是否都为SUCCESS。
func (s *Service) refundWechat(ctx context.Context, client gateway.WechatClient, charge *entity.Charge, refund *entity.Refund) {
	fee := minorUnits(charge.Amount)
	rsp, err := client.Refund(ctx, gateway.WechatRefund{
		OutTradeNo:  strconv.FormatUint(charge.ID, 10),
		OutRefundNo: refundRequestNo(),
		TotalFee:    fee,
		RefundFee:   fee,
	})
	if err != nil {
		logger.Warn("wechat refund request failed",
			zap.Uint64("charge_id", charge.ID),
			zap.String("channel", string(charge.Channel)), zap.Error(err))
		refund.Success = false
		refund.Extra = entity.JSONMap{"error": err.Error()}
		return
	}

	extra := make(entity.JSONMap, len(rsp))
	for k, v := range rsp {
		extra[k] = v
	}
	refund.Extra = extra
	refund.Success = rsp["return_code"] == "SUCCESS" && rsp["result_code"] == "SUCCESS"
}

// invokeRefundHook 在退款单落库后执行业务回调，执行完毕才返回退款结果。
// 回调失败只记录日志，不影响已落库的退款结果。
func (s *Service) invokeRefundHook(ctx context.Context, p *payments.Payment, refund *entity.Refund, charge *entity.Charge) {
	if err := p.RefundHook(ctx, refund, charge); err != nil {
		logger.Warn("refund hook failed",
			zap.String("path", p.Path),
			zap.Uint64("refund_id", refund.ID), zap.Error(err))
	}
}

// ListRefunds 分页查询退款单
func (s *Service) ListRefunds(ctx context.Context, path string, page, pageSize int) ([]*entity.Refund, int64, error) {
	p, err := s.registry.Get(path)
	if err != nil {
		return nil, 0, err
	}
	return p.Refunds.List(ctx, page, pageSize)
}
