package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zqdfound/go-payments/internal/api/router"
	"github.com/zqdfound/go-payments/internal/domain/entity"
	"github.com/zqdfound/go-payments/internal/domain/repository"
	"github.com/zqdfound/go-payments/internal/gateway/alipay"
	"github.com/zqdfound/go-payments/internal/gateway/wechat"
	"github.com/zqdfound/go-payments/internal/infrastructure/cache"
	"github.com/zqdfound/go-payments/internal/infrastructure/config"
	"github.com/zqdfound/go-payments/internal/infrastructure/database"
	"github.com/zqdfound/go-payments/internal/payments"
	"github.com/zqdfound/go-payments/internal/service/auth"
	paymentService "github.com/zqdfound/go-payments/internal/service/payment"
	"github.com/zqdfound/go-payments/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	configPath := "configs/config-dev.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	if err := config.Load(configPath); err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      config.Cfg.Logger.Level,
		Filename:   config.Cfg.Logger.Filename,
		MaxSize:    config.Cfg.Logger.MaxSize,
		MaxAge:     config.Cfg.Logger.MaxAge,
		MaxBackups: config.Cfg.Logger.MaxBackups,
		Compress:   config.Cfg.Logger.Compress,
	}); err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting go-payments server...")

	if err := database.Init(database.Config{
		DSN:             config.Cfg.Database.GetDSN(),
		MaxIdleConns:    config.Cfg.Database.MaxIdleConns,
		MaxOpenConns:    config.Cfg.Database.MaxOpenConns,
		ConnMaxLifetime: config.Cfg.Database.ConnMaxLifetime,
	}); err != nil {
		logger.Fatal("failed to init database", zap.Error(err))
	}
	defer database.Close()

	logger.Info("database connected")

	if err := cache.Init(cache.Config{
		Addr:     config.Cfg.Redis.GetRedisAddr(),
		Password: config.Cfg.Redis.Password,
		DB:       config.Cfg.Redis.DB,
		PoolSize: config.Cfg.Redis.PoolSize,
	}); err != nil {
		logger.Fatal("failed to init redis", zap.Error(err))
	}
	defer cache.Close()

	logger.Info("redis connected")

	db := database.GetDB()
	userRepo := repository.NewMySQLUserRepository(db)

	authService := auth.NewService(userRepo, config.Cfg.JWT.Secret, config.Cfg.JWT.GetJWTExpire())

	// 按配置注册支付路径，路由挂载前完成全部注册
	registry := payments.NewRegistry()
	for _, pc := range config.Cfg.Payments {
		p, err := buildPayment(db, pc)
		if err != nil {
			logger.Fatal("failed to build payment", zap.String("path", pc.Path), zap.Error(err))
		}
		if err := registry.Register(p); err != nil {
			logger.Fatal("failed to register payment", zap.String("path", pc.Path), zap.Error(err))
		}
		logger.Info("payment registered",
			zap.String("path", pc.Path),
			zap.Bool("test", pc.Test),
			zap.Strings("channels", pc.Channels))
	}

	paymentSvc := paymentService.NewService(registry)

	gin.SetMode(config.Cfg.Server.Mode)

	r := router.SetupRouter(authService, paymentSvc, config.Cfg.App, config.Cfg.Roles)

	srv := &http.Server{
		Addr:         config.Cfg.Server.GetServerAddr(),
		Handler:      r,
		ReadTimeout:  config.Cfg.Server.GetReadTimeout(),
		WriteTimeout: config.Cfg.Server.GetWriteTimeout(),
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("mode", config.Cfg.Server.Mode))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// 等待中断信号优雅关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// buildPayment 按配置组装一个支付路径：仓储、网关客户端与业务回调
func buildPayment(db *gorm.DB, pc config.PaymentConfig) (*payments.Payment, error) {
	channels := make([]entity.Channel, 0, len(pc.Channels))
	for _, c := range pc.Channels {
		channels = append(channels, entity.Channel(c))
	}
	currencies := make([]entity.Currency, 0, len(pc.Currencies))
	for _, c := range pc.Currencies {
		currencies = append(currencies, entity.Currency(c))
	}

	chargeRepo := repository.NewMySQLChargeRepository(db, pc.Path, channels, currencies)
	if err := chargeRepo.AutoMigrate(); err != nil {
		return nil, err
	}
	refundRepo := repository.NewMySQLRefundRepository(db, pc.Path)
	if err := refundRepo.AutoMigrate(); err != nil {
		return nil, err
	}

	p := &payments.Payment{
		Path:       pc.Path,
		Test:       pc.Test,
		Channels:   channels,
		Currencies: currencies,
		Charges:    chargeRepo,
		Refunds:    refundRepo,
		ChargeHook: func(ctx context.Context, charge *entity.Charge) error {
			logger.Info("charge webhook",
				zap.String("path", pc.Path),
				zap.Uint64("charge_id", charge.ID),
				zap.Float64("amount", charge.Amount),
				zap.Any("extra", charge.Extra))
			return nil
		},
	}

	if pc.Refund {
		p.RefundHook = func(ctx context.Context, refund *entity.Refund, charge *entity.Charge) error {
			logger.Info("refund webhook",
				zap.String("path", pc.Path),
				zap.Uint64("charge_id", charge.ID),
				zap.String("channel", string(charge.Channel)),
				zap.Float64("amount", refund.Amount),
				zap.Bool("success", refund.Success))
			return nil
		}
	}

	if pc.Alipay != nil {
		client, err := alipay.New(alipay.Config{
			AppID:           pc.Alipay.AppID,
			PrivateKey:      pc.Alipay.PrivateKey,
			AlipayPublicKey: pc.Alipay.PublicKey,
			IsProduction:    pc.Alipay.Production,
		})
		if err != nil {
			return nil, err
		}
		p.Alipay = client
	}

	if pc.Wechatpay != nil {
		client, err := buildWechatClient(pc.Wechatpay)
		if err != nil {
			return nil, err
		}
		p.Wechatpay = client
	}
	if pc.Mppay != nil {
		client, err := buildWechatClient(pc.Mppay)
		if err != nil {
			return nil, err
		}
		p.Mppay = client
	}
	if pc.Minigrampay != nil {
		client, err := buildWechatClient(pc.Minigrampay)
		if err != nil {
			return nil, err
		}
		p.Minigrampay = client
	}

	return p, nil
}

func buildWechatClient(wc *config.WechatConfig) (*wechat.Client, error) {
	return wechat.New(wechat.Config{
		AppID:    wc.AppID,
		MchID:    wc.MchID,
		APIKey:   wc.APIKey,
		CertFile: wc.CertFile,
		KeyFile:  wc.KeyFile,
	})
}
