package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

var Cfg *Config

// Config 全局配置结构
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	App      AppConfig       `mapstructure:"app"`
	Database DatabaseConfig  `mapstructure:"database"`
	Redis    RedisConfig     `mapstructure:"redis"`
	Logger   LoggerConfig    `mapstructure:"logger"`
	JWT      JWTConfig       `mapstructure:"jwt"`
	Roles    []string        `mapstructure:"roles"`
	Payments []PaymentConfig `mapstructure:"payments"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// AppConfig 对外地址配置，用于拼装异步通知URL
type AppConfig struct {
	Domain string `mapstructure:"domain"`
	HTTPS  bool   `mapstructure:"https"`
	// TLSPort 对外TLS端口，非443时会拼进通知URL
	TLSPort int `mapstructure:"tls_port"`
	// Port 对外HTTP端口，非80时会拼进通知URL
	Port int `mapstructure:"port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"`
}

// PaymentConfig 一个支付路径的配置
type PaymentConfig struct {
	Path       string   `mapstructure:"path"`
	Test       bool     `mapstructure:"test"`
	Channels   []string `mapstructure:"channels"`
	Currencies []string `mapstructure:"currencies"`
	// Refund 是否开放退款入口
	Refund bool `mapstructure:"refund"`

	Alipay      *AlipayConfig `mapstructure:"alipay"`
	Wechatpay   *WechatConfig `mapstructure:"wechatpay"`
	Mppay       *WechatConfig `mapstructure:"mppay"`
	Minigrampay *WechatConfig `mapstructure:"minigrampay"`
}

// AlipayConfig 支付宝商户配置
type AlipayConfig struct {
	AppID      string `mapstructure:"app_id"`
	PrivateKey string `mapstructure:"private_key"`
	PublicKey  string `mapstructure:"public_key"`
	Production bool   `mapstructure:"production"`
}

// WechatConfig 微信商户配置
type WechatConfig struct {
	AppID    string `mapstructure:"app_id"`
	MchID    string `mapstructure:"mch_id"`
	APIKey   string `mapstructure:"api_key"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// Load 加载配置文件
func Load(configPath string) error {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := viper.Unmarshal(&Cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

// GetRedisAddr 获取Redis地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetServerAddr 获取服务器地址
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// GetReadTimeout 获取读取超时时间
func (c *ServerConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

// GetWriteTimeout 获取写入超时时间
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

// GetJWTExpire 获取JWT过期时间
func (c *JWTConfig) GetJWTExpire() time.Duration {
	return time.Duration(c.Expire) * time.Second
}

// BaseURL 拼装对外基础地址。默认端口（443/80）不出现在URL中。
func (c *AppConfig) BaseURL() string {
	if c.HTTPS {
		if c.TLSPort != 0 && c.TLSPort != 443 {
			return fmt.Sprintf("https://%s:%d", c.Domain, c.TLSPort)
		}
		return "https://" + c.Domain
	}
	if c.Port != 0 && c.Port != 80 {
		return fmt.Sprintf("http://%s:%d", c.Domain, c.Port)
	}
	return "http://" + c.Domain
}
