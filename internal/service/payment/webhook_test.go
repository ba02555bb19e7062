package payment

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zqdfound/go-payments/internal/domain/entity"
	apperrors "github.com/zqdfound/go-payments/pkg/errors"
)

func alipayNotify(tradeStatus string) url.Values {
	return url.Values{
		"out_trade_no": {"42"},
		"trade_status": {tradeStatus},
		"trade_no":     {"2025082822001400001234567890"},
	}
}

// TestAlipayWebhook_Success 验签通过且交易成功时对账并回调
func TestAlipayWebhook_Success(t *testing.T) {
	f := newFixture(false, false)
	charge := &entity.Charge{ID: 42, Channel: entity.ChannelAlipay, Amount: 100}

	f.alipay.On("Verify", mock.Anything).Return(true)
	f.charges.On("GetByID", mock.Anything, uint64(42)).Return(charge, nil)
	f.charges.On("Save", mock.Anything, charge).Return(nil)

	ack, err := f.service.HandleAlipayWebhook(context.Background(), "order", alipayNotify("TRADE_SUCCESS"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("success"), ack)
	assert.True(t, charge.Paid)
	assert.Len(t, f.chargeHookCalls, 1)
	assert.Equal(t, charge, f.chargeHookCalls[0])
}

// TestAlipayWebhook_InvalidSignature 验签失败报错且不改动状态
func TestAlipayWebhook_InvalidSignature(t *testing.T) {
	f := newFixture(false, false)
	f.alipay.On("Verify", mock.Anything).Return(false)

	_, err := f.service.HandleAlipayWebhook(context.Background(), "order", alipayNotify("TRADE_SUCCESS"))
	assert.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	assert.True(t, ok)
	assert.Equal(t, apperrors.ErrInvalidSignature, appErr.Code)

	f.charges.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	f.charges.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Empty(t, f.chargeHookCalls)
}

// TestAlipayWebhook_OtherStatus 非成功状态只确认应答不对账
func TestAlipayWebhook_OtherStatus(t *testing.T) {
	f := newFixture(false, false)
	f.alipay.On("Verify", mock.Anything).Return(true)

	ack, err := f.service.HandleAlipayWebhook(context.Background(), "order", alipayNotify("WAIT_BUYER_PAY"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("success"), ack)

	f.charges.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Empty(t, f.chargeHookCalls)
}

// TestAlipayWebhook_Replay 通知重放不报错，回调可能重复执行
func TestAlipayWebhook_Replay(t *testing.T) {
	f := newFixture(false, false)
	charge := &entity.Charge{ID: 42, Channel: entity.ChannelAlipay, Paid: true}

	f.alipay.On("Verify", mock.Anything).Return(true)
	f.charges.On("GetByID", mock.Anything, uint64(42)).Return(charge, nil)
	f.charges.On("Save", mock.Anything, charge).Return(nil)

	_, err := f.service.HandleAlipayWebhook(context.Background(), "order", alipayNotify("TRADE_SUCCESS"))
	assert.NoError(t, err)
	_, err = f.service.HandleAlipayWebhook(context.Background(), "order", alipayNotify("TRADE_SUCCESS"))
	assert.NoError(t, err)
	assert.True(t, charge.Paid)
	assert.Len(t, f.chargeHookCalls, 2)
}

// TestWechatWebhook_Success 微信通知对账并返回XML确认报文
func TestWechatWebhook_Success(t *testing.T) {
	f := newFixture(false, false)
	charge := &entity.Charge{ID: 42, Channel: entity.ChannelWechatpay, Amount: 100}
	ackXML := []byte("<xml><return_code><![CDATA[SUCCESS]]></return_code></xml>")

	f.wechat.On("SignVerify", mock.Anything).Return(true)
	f.wechat.On("Success").Return(ackXML)
	f.charges.On("GetByID", mock.Anything, uint64(42)).Return(charge, nil)
	f.charges.On("Save", mock.Anything, charge).Return(nil)

	ack, err := f.service.HandleWechatWebhook(context.Background(), "order", entity.ChannelWechatpay, map[string]string{
		"out_trade_no": "42",
		"return_code":  "SUCCESS",
		"result_code":  "SUCCESS",
	})
	assert.NoError(t, err)
	assert.Equal(t, ackXML, ack)
	assert.True(t, charge.Paid)
	assert.Len(t, f.chargeHookCalls, 1)
}

// TestWechatWebhook_InvalidSignature 验签失败报错且不改动状态
func TestWechatWebhook_InvalidSignature(t *testing.T) {
	f := newFixture(false, false)
	f.wechat.On("SignVerify", mock.Anything).Return(false)

	_, err := f.service.HandleWechatWebhook(context.Background(), "order", entity.ChannelMppay, map[string]string{
		"out_trade_no": "42",
		"return_code":  "SUCCESS",
		"result_code":  "SUCCESS",
	})
	assert.Error(t, err)
	f.charges.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestWechatWebhook_ResultFail result_code非SUCCESS时只确认应答不对账
func TestWechatWebhook_ResultFail(t *testing.T) {
	f := newFixture(false, false)
	ackXML := []byte("<xml><return_code><![CDATA[SUCCESS]]></return_code></xml>")

	f.wechat.On("SignVerify", mock.Anything).Return(true)
	f.wechat.On("Success").Return(ackXML)

	ack, err := f.service.HandleWechatWebhook(context.Background(), "order", entity.ChannelWechatpay, map[string]string{
		"out_trade_no": "42",
		"return_code":  "SUCCESS",
		"result_code":  "FAIL",
	})
	assert.NoError(t, err)
	assert.Equal(t, ackXML, ack)
	f.charges.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Empty(t, f.chargeHookCalls)
}

// TestConfirmTestCharge 测试模式手动确认支付
func TestConfirmTestCharge(t *testing.T) {
	f := newFixture(true, false)
	charge := &entity.Charge{ID: 7, Channel: entity.ChannelAlipay}

	f.charges.On("GetByID", mock.Anything, uint64(7)).Return(charge, nil)
	f.charges.On("Save", mock.Anything, charge).Return(nil)

	confirmed, err := f.service.ConfirmTestCharge(context.Background(), "order", 7)
	assert.NoError(t, err)
	assert.True(t, confirmed.Paid)
	assert.Len(t, f.chargeHookCalls, 1)
}

// TestConfirmTestCharge_NotFound 支付单不存在时报错
func TestConfirmTestCharge_NotFound(t *testing.T) {
	f := newFixture(true, false)
	f.charges.On("GetByID", mock.Anything, uint64(999)).
		Return(nil, apperrors.New(apperrors.ErrChargeNotFound, "Charge not found"))

	_, err := f.service.ConfirmTestCharge(context.Background(), "order", 999)
	assert.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	assert.True(t, ok)
	assert.Equal(t, apperrors.ErrChargeNotFound, appErr.Code)
	assert.Empty(t, f.chargeHookCalls)
}
