package payment

import (
	"context"
	"net/url"

	"github.com/stretchr/testify/mock"
	"github.com/zqdfound/go-payments/internal/domain/entity"
	"github.com/zqdfound/go-payments/internal/gateway"
	"github.com/zqdfound/go-payments/internal/payments"
)

type mockChargeRepo struct {
	mock.Mock
}

func (m *mockChargeRepo) Create(ctx context.Context, charge *entity.Charge) error {
	args := m.Called(ctx, charge)
	return args.Error(0)
}

func (m *mockChargeRepo) GetByID(ctx context.Context, id uint64) (*entity.Charge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Charge), args.Error(1)
}

func (m *mockChargeRepo) Save(ctx context.Context, charge *entity.Charge) error {
	args := m.Called(ctx, charge)
	return args.Error(0)
}

func (m *mockChargeRepo) List(ctx context.Context, page, pageSize int) ([]*entity.Charge, int64, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.Charge), args.Get(1).(int64), args.Error(2)
}

type mockRefundRepo struct {
	mock.Mock
}

func (m *mockRefundRepo) Create(ctx context.Context, refund *entity.Refund) error {
	args := m.Called(ctx, refund)
	return args.Error(0)
}

func (m *mockRefundRepo) List(ctx context.Context, page, pageSize int) ([]*entity.Refund, int64, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.Refund), args.Get(1).(int64), args.Error(2)
}

type mockAlipayClient struct {
	mock.Mock
}

func (m *mockAlipayClient) BuildAppPayRequest(trade gateway.AlipayTrade) interface{} {
	args := m.Called(trade)
	return args.Get(0)
}

func (m *mockAlipayClient) BuildPagePayRequest(trade gateway.AlipayTrade) interface{} {
	args := m.Called(trade)
	return args.Get(0)
}

func (m *mockAlipayClient) BuildRefundRequest(refund gateway.AlipayRefund) interface{} {
	args := m.Called(refund)
	return args.Get(0)
}

func (m *mockAlipayClient) GenerateRequestParams(req interface{}) (interface{}, error) {
	args := m.Called(req)
	return args.Get(0), args.Error(1)
}

func (m *mockAlipayClient) Execute(ctx context.Context, req interface{}) (map[string]interface{}, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *mockAlipayClient) Verify(fields url.Values) bool {
	args := m.Called(fields)
	return args.Bool(0)
}

type mockWechatClient struct {
	mock.Mock
}

func (m *mockWechatClient) CreateUnifiedOrder(ctx context.Context, order gateway.UnifiedOrder) (map[string]string, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *mockWechatClient) ConfigForPayment(order map[string]string) (map[string]string, error) {
	args := m.Called(order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *mockWechatClient) Refund(ctx context.Context, refund gateway.WechatRefund) (map[string]string, error) {
	args := m.Called(ctx, refund)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *mockWechatClient) SignVerify(fields map[string]string) bool {
	args := m.Called(fields)
	return args.Bool(0)
}

func (m *mockWechatClient) Success() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

// testFixture 组装一条测试用的支付路径
type testFixture struct {
	registry *payments.Registry
	service  *Service
	charges  *mockChargeRepo
	refunds  *mockRefundRepo
	alipay   *mockAlipayClient
	wechat   *mockWechatClient

	chargeHookCalls   []*entity.Charge
	refundHookCalls   []*entity.Refund
	refundHookCharges []*entity.Charge
}

func newFixture(test bool, withRefund bool) *testFixture {
	f := &testFixture{
		registry: payments.NewRegistry(),
		charges:  new(mockChargeRepo),
		refunds:  new(mockRefundRepo),
		alipay:   new(mockAlipayClient),
		wechat:   new(mockWechatClient),
	}

	p := &payments.Payment{
		Path: "order",
		Test: test,
		Channels: []entity.Channel{
			entity.ChannelAlipay, entity.ChannelWechatpay,
			entity.ChannelMppay, entity.ChannelMinigrampay,
		},
		Currencies: []entity.Currency{entity.CurrencyCNY},
		Charges:    f.charges,
		Refunds:    f.refunds,
		ChargeHook: func(ctx context.Context, charge *entity.Charge) error {
			f.chargeHookCalls = append(f.chargeHookCalls, charge)
			return nil
		},
		Alipay:      f.alipay,
		Wechatpay:   f.wechat,
		Mppay:       f.wechat,
		Minigrampay: f.wechat,
	}
	if withRefund {
		p.RefundHook = func(ctx context.Context, refund *entity.Refund, charge *entity.Charge) error {
			f.refundHookCalls = append(f.refundHookCalls, refund)
			f.refundHookCharges = append(f.refundHookCharges, charge)
			return nil
		}
	}

	if err := f.registry.Register(p); err != nil {
		panic(err)
	}
	f.registry.AddWebhook("order", "https://pay.example.com/__payments_order/webhook")
	f.service = NewService(f.registry)
	return f
}

// expectCreate 模拟落库时分配支付单号
func (f *testFixture) expectCreate(id uint64) {
	f.charges.On("Create", mock.Anything, mock.AnythingOfType("*entity.Charge")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*entity.Charge).ID = id
		}).Return(nil)
}
