package handler

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zqdfound/go-payments/internal/domain/entity"
	"github.com/zqdfound/go-payments/internal/gateway/wechat"
	paymentService "github.com/zqdfound/go-payments/internal/service/payment"
	apperrors "github.com/zqdfound/go-payments/pkg/errors"
)

// PaymentServiceInterface 支付服务接口，用于依赖注入和测试
type PaymentServiceInterface interface {
	Charge(ctx context.Context, path string, draft *entity.Charge) (*paymentService.ChargeResult, error)
	Refund(ctx context.Context, path string, chargeID uint64, reason string) (*entity.Refund, error)
	ListCharges(ctx context.Context, path string, page, pageSize int) ([]*entity.Charge, int64, error)
	ListRefunds(ctx context.Context, path string, page, pageSize int) ([]*entity.Refund, int64, error)
	HandleAlipayWebhook(ctx context.Context, path string, fields url.Values) ([]byte, error)
	HandleWechatWebhook(ctx context.Context, path string, channel entity.Channel, fields map[string]string) ([]byte, error)
	ConfirmTestCharge(ctx context.Context, path string, chargeID uint64) (*entity.Charge, error)
}

// PaymentHandler 一个支付路径的HTTP处理器
type PaymentHandler struct {
	service PaymentServiceInterface
	path    string
}

// NewPaymentHandler 创建支付处理器
func NewPaymentHandler(service PaymentServiceInterface, path string) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		path:    path,
	}
}

// CreateChargeRequest 创建支付单请求
type CreateChargeRequest struct {
	Channel   string                 `json:"channel" binding:"required"`
	Currency  string                 `json:"currency" binding:"required"`
	Device    string                 `json:"device"`
	Subject   string                 `json:"subject" binding:"required"`
	Body      string                 `json:"body" binding:"required"`
	Amount    float64                `json:"amount" binding:"required,gt=0"`
	ReturnURL string                 `json:"return_url"`
	Openid    string                 `json:"openid"`
	Extra     map[string]interface{} `json:"extra"`
}

// CreateCharge 创建支付单
func (h *PaymentHandler) CreateCharge(c *gin.Context) {
	var req CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{
			"code":    apperrors.ErrInvalidParam,
			"message": err.Error(),
		})
		return
	}

	draft := &entity.Charge{
		Channel:   entity.Channel(req.Channel),
		Currency:  entity.Currency(req.Currency),
		Device:    entity.Device(req.Device),
		ClientIP:  c.ClientIP(),
		Subject:   req.Subject,
		Body:      req.Body,
		Amount:    req.Amount,
		ReturnURL: req.ReturnURL,
		Openid:    req.Openid,
		Extra:     entity.JSONMap(req.Extra),
	}

	result, err := h.service.Charge(c.Request.Context(), h.path, draft)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    apperrors.ErrSuccess,
		"message": "success",
		"data":    result,
	})
}

// ListCharges 分页查询支付单
func (h *PaymentHandler) ListCharges(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	charges, total, err := h.service.ListCharges(c.Request.Context(), h.path, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    apperrors.ErrSuccess,
		"message": "success",
		"data": gin.H{
			"list":      charges,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// ListRefunds 分页查询退款单
func (h *PaymentHandler) ListRefunds(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	refunds, total, err := h.service.ListRefunds(c.Request.Context(), h.path, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    apperrors.ErrSuccess,
		"message": "success",
		"data": gin.H{
			"list":      refunds,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// CreateRefundRequest 创建退款请求
type CreateRefundRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateRefund 创建退款单
func (h *PaymentHandler) CreateRefund(c *gin.Context) {
	chargeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{
			"code":    apperrors.ErrInvalidParam,
			"message": "invalid charge id",
		})
		return
	}

	var req CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{
			"code":    apperrors.ErrInvalidParam,
			"message": err.Error(),
		})
		return
	}

	refund, err := h.service.Refund(c.Request.Context(), h.path, chargeID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    apperrors.ErrSuccess,
		"message": "success",
		"data":    refund,
	})
}

// HandleWebhook 处理网关异步通知。
// 支付宝通知为表单编码，微信系通知为XML报文。
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	channel := entity.Channel(c.Param("channel"))

	switch channel {
	case entity.ChannelAlipay:
		if err := c.Request.ParseForm(); err != nil {
			c.String(400, "fail")
			return
		}
		ack, err := h.service.HandleAlipayWebhook(c.Request.Context(), h.path, c.Request.Form)
		if err != nil {
			webhookError(c, err)
			return
		}
		c.Data(200, "text/plain", ack)

	case entity.ChannelWechatpay, entity.ChannelMppay, entity.ChannelMinigrampay:
		body, err := c.GetRawData()
		if err != nil {
			c.String(400, "fail")
			return
		}
		fields, err := wechat.DecodeXML(body)
		if err != nil {
			c.String(400, "fail")
			return
		}
		ack, err := h.service.HandleWechatWebhook(c.Request.Context(), h.path, channel, fields)
		if err != nil {
			webhookError(c, err)
			return
		}
		c.Data(200, "text/xml", ack)

	default:
		c.String(400, "fail")
	}
}

// HandleTestWebhook 测试模式的手动确认入口
func (h *PaymentHandler) HandleTestWebhook(c *gin.Context) {
	chargeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{
			"code":    apperrors.ErrInvalidParam,
			"message": "invalid charge id",
		})
		return
	}

	charge, err := h.service.ConfirmTestCharge(c.Request.Context(), h.path, chargeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"code":    apperrors.ErrSuccess,
		"message": "success",
		"data":    charge,
	})
}

// respondError 统一的错误到响应转换
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(appErr.HTTPStatus(), gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		})
		return
	}

	c.JSON(500, gin.H{
		"code":    apperrors.ErrInternalServer,
		"message": "internal server error",
	})
}

// webhookError 网关通知的错误应答，网关只关心状态码
func webhookError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.String(appErr.HTTPStatus(), "fail")
		return
	}
	c.String(500, "fail")
}
