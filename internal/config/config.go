package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig 应用元信息
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port           int             `mapstructure:"port"`
	Mode           string          `mapstructure:"mode"` // debug, release, test
	ReadTimeout    int             `mapstructure:"read_timeout"`
	WriteTimeout   int             `mapstructure:"write_timeout"`
	BodyLimitBytes int64           `mapstructure:"body_limit_bytes"`
	AllowedOrigins string          `mapstructure:"allowed_origins"` // 逗号分隔，空表示 *
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig 付费路由限流配置，RequestsPerSecond 为 0 时关闭
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, /path/to/log
}

// UpstreamConfig 上游推理 API 配置
type UpstreamConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // 秒，0 表示不设置
}

// PaymentConfig 付费网关配置
type PaymentConfig struct {
	PayTo             string            `mapstructure:"pay_to"`
	Price             string            `mapstructure:"price"`
	Network           string            `mapstructure:"network"`
	Description       string            `mapstructure:"description"`
	MaxTimeoutSeconds int               `mapstructure:"max_timeout_seconds"`
	ResourceURL       string            `mapstructure:"resource_url"`
	Facilitator       FacilitatorConfig `mapstructure:"facilitator"`
}

// FacilitatorConfig 结算服务配置
type FacilitatorConfig struct {
	URL          string `mapstructure:"url"`
	APIKeyID     string `mapstructure:"api_key_id"`
	APIKeySecret string `mapstructure:"api_key_secret"`
	Timeout      int    `mapstructure:"timeout"` // 秒
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// 必需配置对应的环境变量名（沿用线上部署的命名）
const (
	EnvPayTo              = "ADDRESS_MAINNET"
	EnvUpstreamAPIKey     = "HYPERBOLIC_API_KEY"
	EnvFacilitatorKeyID   = "CDP_API_KEY_ID"
	EnvFacilitatorSecret  = "CDP_API_KEY_SECRET"
	EnvAllowedOrigins     = "ALLOWED_ORIGINS"
	EnvLogLevel           = "LOG_LEVEL"
	EnvPort               = "PORT"
	defaultFacilitatorURL = "https://api.cdp.coinbase.com/platform/v2/x402"
)

// envAliases 配置键到部署环境变量的绑定
var envAliases = map[string]string{
	"payment.pay_to":                     EnvPayTo,
	"upstream.api_key":                   EnvUpstreamAPIKey,
	"payment.facilitator.api_key_id":     EnvFacilitatorKeyID,
	"payment.facilitator.api_key_secret": EnvFacilitatorSecret,
	"server.allowed_origins":             EnvAllowedOrigins,
	"log.level":                          EnvLogLevel,
	"server.port":                        EnvPort,
}

// setDefaults 设置默认值，同时让 AutomaticEnv 能识别所有键
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Hyperbolic x402 API")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 0)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.body_limit_bytes", 10<<20)
	v.SetDefault("server.allowed_origins", "")
	v.SetDefault("server.rate_limit.requests_per_second", 0)
	v.SetDefault("server.rate_limit.burst", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "stdout")

	v.SetDefault("upstream.name", "hyperbolic")
	v.SetDefault("upstream.base_url", "https://api.hyperbolic.xyz/v1")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.timeout", 0)

	v.SetDefault("payment.pay_to", "")
	v.SetDefault("payment.price", "$0.1")
	v.SetDefault("payment.network", "base")
	v.SetDefault("payment.description", "AI chat completion service powered by Hyperbolic's open-source models")
	v.SetDefault("payment.max_timeout_seconds", 60)
	v.SetDefault("payment.resource_url", "")
	v.SetDefault("payment.facilitator.url", defaultFacilitatorURL)
	v.SetDefault("payment.facilitator.api_key_id", "")
	v.SetDefault("payment.facilitator.api_key_secret", "")
	v.SetDefault("payment.facilitator.timeout", 30)

	v.SetDefault("metrics.enabled", true)
}

// Load 加载配置
// env: 环境名称（dev, prod, test），决定默认配置文件名
// configPath: 配置文件路径（可选），指定时文件必须存在
func Load(env string, configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == "" {
		v.SetConfigName(env) // dev.yaml, prod.yaml
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
		v.AddConfigPath("../../config")
	} else {
		v.SetConfigFile(configPath)
	}
	v.SetConfigType("yaml")

	// 读取环境变量（优先级高于配置文件）
	v.SetEnvPrefix("APP") // 环境变量前缀：APP_
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}

	// 配置文件可选：按名称查找时找不到文件则只使用默认值与环境变量
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return &cfg, nil
}

// MissingKeys 返回缺失的必需配置（以环境变量名表示，顺序固定）
func (c *Config) MissingKeys() []string {
	var missing []string
	if strings.TrimSpace(c.Payment.PayTo) == "" {
		missing = append(missing, EnvPayTo)
	}
	if strings.TrimSpace(c.Upstream.APIKey) == "" {
		missing = append(missing, EnvUpstreamAPIKey)
	}
	if strings.TrimSpace(c.Payment.Facilitator.APIKeyID) == "" {
		missing = append(missing, EnvFacilitatorKeyID)
	}
	if strings.TrimSpace(c.Payment.Facilitator.APIKeySecret) == "" {
		missing = append(missing, EnvFacilitatorSecret)
	}
	return missing
}

// Origins 解析允许的跨域来源，空列表表示允许任意来源
func (s ServerConfig) Origins() []string {
	raw := strings.TrimSpace(s.AllowedOrigins)
	if raw == "" {
		return nil
	}
	var res []string
	for _, p := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(p); v != "" {
			res = append(res, v)
		}
	}
	return res
}

// Duration 将秒数配置转为 time.Duration
func Duration(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
