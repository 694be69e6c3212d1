package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	handlercommon "github.com/Idri009/Coinbase-x402-Agent/api/handlers/common"
	"github.com/Idri009/Coinbase-x402-Agent/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// probeTimeout 就绪探测超时
const probeTimeout = 10 * time.Second

// Prober 上游就绪探测
type Prober interface {
	Name() string
	Probe(ctx context.Context) error
}

// ConfigChecker 报告缺失的必需配置
type ConfigChecker interface {
	MissingKeys() []string
}

// HealthCheck 健康检查
// @Summary 服务健康检查
// @Description 存活探针，不检查依赖
// @Tags System
// @Produce json
// @Success 200 {object} handlercommon.HealthResponse
// @Router /health [get]
func HealthCheck(version string, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, handlercommon.HealthResponse{
			Status:    handlercommon.StatusHealthy,
			Timestamp: common.Timestamp(),
			Uptime:    time.Since(startedAt).Seconds(),
			Version:   version,
		})
	}
}

// ReadinessCheck 就绪检查
// @Summary 服务就绪检查
// @Description 检查必需配置并探测上游推理服务
// @Tags System
// @Produce json
// @Success 200 {object} handlercommon.ReadyResponse
// @Failure 503 {object} handlercommon.NotReadyResponse
// @Router /ready [get]
func ReadinessCheck(cfg ConfigChecker, prober Prober, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if missing := cfg.MissingKeys(); len(missing) > 0 {
			notReady(c, "Missing environment variables: "+strings.Join(missing, ", "))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		defer cancel()
		if err := prober.Probe(ctx); err != nil {
			log.Error("Readiness check failed: "+err.Error(), zap.String("service", prober.Name()))
			notReady(c, err.Error())
			return
		}

		c.JSON(http.StatusOK, handlercommon.ReadyResponse{
			Status:    handlercommon.StatusReady,
			Timestamp: common.Timestamp(),
			Services:  map[string]string{prober.Name(): handlercommon.StatusHealthy},
		})
	}
}

func notReady(c *gin.Context, reason string) {
	c.JSON(http.StatusServiceUnavailable, handlercommon.NotReadyResponse{
		Status:    handlercommon.StatusNotReady,
		Error:     reason,
		Timestamp: common.Timestamp(),
	})
}

// stringInSlice 判断字符串是否存在于切片中
func stringInSlice(target string, list []string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}
