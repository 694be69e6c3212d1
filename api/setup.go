package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	_ "github.com/Idri009/Coinbase-x402-Agent/api/docs"
	chatHandlers "github.com/Idri009/Coinbase-x402-Agent/api/handlers/chat"
	"github.com/Idri009/Coinbase-x402-Agent/api/handlers/txlog"
	"github.com/Idri009/Coinbase-x402-Agent/internal/common"
	"github.com/Idri009/Coinbase-x402-Agent/internal/config"
	"github.com/Idri009/Coinbase-x402-Agent/internal/metrics"
	middlewarepkg "github.com/Idri009/Coinbase-x402-Agent/internal/middleware"
	"github.com/Idri009/Coinbase-x402-Agent/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Dependencies 路由依赖，均可在测试中替换
type Dependencies struct {
	Config      *config.Config
	Logger      *zap.Logger
	Upstream    chatHandlers.Upstream
	Prober      Prober
	Gate        payment.Gate // 配置不完整时为 nil
	Recorder    txlog.TransactionRecorder
	RateLimiter *middlewarepkg.RateLimiter // nil 表示不限流，生命周期由调用方管理
	StartedAt   time.Time
}

const transactionLogPath = "/v1/transaction-log"

// SetupRouter 设置并返回 Gin 路由
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if deps.StartedAt.IsZero() {
		deps.StartedAt = time.Now()
	}

	router := gin.New()

	// 全局中间件：访问日志在最外层，才能记录 panic 恢复后的 500
	router.Use(AccessLog(log))
	router.Use(gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		common.AbortWithError(c, log, common.InternalFault(fmt.Errorf("panic: %v", recovered)))
	}))
	router.Use(middlewarepkg.SecurityHeaders())
	router.Use(CORS(cfg.Server.Origins()))

	// Prometheus 指标收集中间件
	if cfg.Metrics.Enabled {
		router.Use(metrics.PrometheusMiddleware(chatCompletionsPath))
	}

	router.Use(middlewarepkg.RequestID())
	router.Use(middlewarepkg.BodyLimit(cfg.Server.BodyLimitBytes))

	// 公开端点
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to the %s", cfg.App.Name)
	})
	router.GET("/favicon.ico", noContent)
	router.GET("/favicon.png", noContent)
	router.GET("/health", HealthCheck(cfg.App.Version, deps.StartedAt))
	router.GET("/ready", ReadinessCheck(cfg, deps.Prober, log))

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Swagger 文档
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 付费与对账端点
	requireID := middlewarepkg.RequireRequestID(log)
	chatHandler := chatHandlers.NewHandler(cfg, deps.Upstream, deps.Gate, log)
	txHandler := txlog.NewHandler(deps.Recorder, log)

	// 先校验关联 ID，缺失时不消耗限流配额
	router.POST(chatCompletionsPath, requireID, middlewarepkg.RateLimitMiddleware(deps.RateLimiter), chatHandler.ChatCompletion)
	router.POST(transactionLogPath, requireID, txHandler.LogTransaction)

	router.NoRoute(func(c *gin.Context) {
		common.AbortWithError(c, log, common.NewError(common.KindRouteNotFound,
			fmt.Sprintf("Route %s not found", c.Request.URL.RequestURI())))
	})

	return router
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
