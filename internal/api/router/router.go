package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zqdfound/go-payments/internal/api/handler"
	"github.com/zqdfound/go-payments/internal/api/middleware"
	"github.com/zqdfound/go-payments/internal/infrastructure/config"
	"github.com/zqdfound/go-payments/internal/service/auth"
	paymentService "github.com/zqdfound/go-payments/internal/service/payment"
)

// SetupRouter 设置路由。
// 每个支付路径挂载一组独立路由，并在挂载时登记其通知地址前缀，
// 保证注册先于任何流量。
func SetupRouter(
	authService *auth.Service,
	paymentSvc *paymentService.Service,
	appCfg config.AppConfig,
	roles []string,
) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.LoggerMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	authHandler := handler.NewAuthHandler(authService)
	r.POST("/auth/token", authHandler.IssueToken)

	registry := paymentSvc.Registry()
	for _, path := range registry.Paths() {
		p, err := registry.Get(path)
		if err != nil {
			continue
		}

		prefix := "/__payments_" + path
		registry.AddWebhook(path, appCfg.BaseURL()+prefix+"/webhook")

		h := handler.NewPaymentHandler(paymentSvc, path)
		group := r.Group(prefix)

		// 网关回调，无认证
		group.POST("/webhook/pay/:channel", h.HandleWebhook)
		group.POST("/webhook/pay/:channel/test/:id", h.HandleTestWebhook)

		// 接入方下单，API Key认证加限流
		authed := group.Group("")
		authed.Use(middleware.AuthMiddleware(authService))
		authed.Use(middleware.RateLimitMiddleware(100, time.Minute))
		{
			authed.POST("/charge", h.CreateCharge)
		}

		// 运营查询与退款，角色令牌认证
		roleBound := group.Group("")
		roleBound.Use(middleware.RoleMiddleware(authService, roles))
		{
			roleBound.GET("/charge", h.ListCharges)
			if p.RefundHook != nil {
				roleBound.GET("/refund", h.ListRefunds)
				roleBound.POST("/refund/:id", h.CreateRefund)
			}
		}
	}

	return r
}
