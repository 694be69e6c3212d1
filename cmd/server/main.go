package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Idri009/Coinbase-x402-Agent/api"
	docs "github.com/Idri009/Coinbase-x402-Agent/api/docs"
	"github.com/Idri009/Coinbase-x402-Agent/api/handlers/txlog"
	"github.com/Idri009/Coinbase-x402-Agent/internal/config"
	"github.com/Idri009/Coinbase-x402-Agent/internal/logger"
	"github.com/Idri009/Coinbase-x402-Agent/internal/middleware"
	"github.com/Idri009/Coinbase-x402-Agent/internal/payment"
	"github.com/Idri009/Coinbase-x402-Agent/internal/upstream"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// @title Hyperbolic x402 API
// @version 1.0.0
// @description x402 付费推理网关：对话补全请求在链上支付结算后返回
// @BasePath /
// @schemes http https
func main() {
	startedAt := time.Now()

	// 0. 统一加载 .env
	loadEnvFile()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	// 1. 加载配置
	cfg, err := config.Load(env, os.Getenv("APP_CONFIG_PATH"))
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.Server.Port)
	docs.SwaggerInfo.Version = cfg.App.Version

	// 2. 初始化日志
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	if err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("应用启动中...",
		zap.String("env", env),
		zap.String("mode", cfg.Server.Mode),
	)

	// 3. 设置 Gin 模式
	gin.SetMode(cfg.Server.Mode)

	// 4. 初始化上游与支付网关
	upstreamClient := upstream.NewClient(upstream.Config{
		Name:    cfg.Upstream.Name,
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  cfg.Upstream.APIKey,
		Timeout: config.Duration(cfg.Upstream.Timeout),
	})

	gate, err := buildGate(cfg, log)
	if err != nil {
		log.Fatal("初始化支付网关失败", zap.Error(err))
	}

	limiter := middleware.NewRateLimiter(&middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.Server.RateLimit.Burst,
	})
	defer limiter.Stop()

	// 5. 创建路由
	router := api.SetupRouter(api.Dependencies{
		Config:      cfg,
		Logger:      log,
		Upstream:    upstreamClient,
		Prober:      upstreamClient,
		Gate:        gate,
		Recorder:    txlog.NewLogRecorder(log),
		RateLimiter: limiter,
		StartedAt:   startedAt,
	})

	// 6. 创建 HTTP 服务器
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout),
	}

	// 7. 启动服务器（goroutine）
	go func() {
		log.Info("HTTP 服务器启动", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP 服务器启动失败", zap.Error(err))
		}
	}()

	// 8. 优雅关闭
	gracefulShutdown(server, log)
}

// buildGate 配置完整时创建支付网关，否则返回 nil，由 Handler 返回配置错误
func buildGate(cfg *config.Config, log *zap.Logger) (payment.Gate, error) {
	if missing := cfg.MissingKeys(); len(missing) > 0 {
		log.Warn("必需配置缺失，付费接口将返回配置错误", zap.Strings("missing", missing))
		return nil, nil
	}

	auth, err := payment.NewCDPAuthorizer(cfg.Payment.Facilitator.APIKeyID, cfg.Payment.Facilitator.APIKeySecret)
	if err != nil {
		return nil, err
	}
	facilitator := payment.NewFacilitatorClient(
		cfg.Payment.Facilitator.URL,
		config.Duration(cfg.Payment.Facilitator.Timeout),
		auth,
	)

	route := payment.DefaultChatCompletionRoute(
		cfg.Payment.PayTo,
		cfg.Payment.Price,
		cfg.Payment.Network,
		cfg.Payment.Description,
		cfg.Payment.MaxTimeoutSeconds,
		cfg.Payment.ResourceURL,
	)
	gate, err := payment.NewFacilitatorGate(route, facilitator, log)
	if err != nil {
		return nil, err
	}

	log.Info("支付网关已启用",
		zap.String("route", route.Route),
		zap.String("price", route.Price),
		zap.String("network", route.Network),
	)
	return gate, nil
}

// loadEnvFile 依次尝试加载当前目录及上级目录的 .env 文件
func loadEnvFile() {
	if path := resolveEnvPath(); path != "" {
		if err := godotenv.Load(path); err != nil {
			fmt.Printf("加载环境变量文件 %s 失败: %v\n", path, err)
		} else {
			fmt.Printf("已加载环境变量文件: %s\n", path)
		}
	} else {
		fmt.Println("未找到 .env 文件，将仅使用系统环境变量和 config/* 配置")
	}
}

// resolveEnvPath 尝试从当前工作目录、可执行文件目录向上查找 .env
func resolveEnvPath() string {
	for _, path := range collectEnvCandidates() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func collectEnvCandidates() []string {
	seen := make(map[string]struct{})
	var candidates []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		candidates = append(candidates, path)
	}

	traverse := func(start string) {
		dir := filepath.Clean(start)
		for i := 0; i < 8; i++ {
			if dir == "" || dir == string(filepath.Separator) || dir == "." {
				break
			}
			add(filepath.Join(dir, ".env"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if wd, err := os.Getwd(); err == nil {
		traverse(wd)
	}
	if exe, err := os.Executable(); err == nil {
		traverse(filepath.Dir(exe))
	}

	return candidates
}

// gracefulShutdown 优雅关闭
func gracefulShutdown(server *http.Server, log *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("服务器关闭异常", zap.Error(err))
	}

	log.Info("服务器已安全关闭")
}
