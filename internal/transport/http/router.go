package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tempmail/secmail/internal/config"
	"tempmail/secmail/internal/health"
	"tempmail/secmail/internal/middleware"
	"tempmail/secmail/internal/monitoring"
	"tempmail/secmail/internal/service"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	MailboxService *service.MailboxService
	MessageService *service.MessageService
	Health         *health.HealthChecker
	Metrics        *monitoring.Metrics
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}

	router := gin.New()

	monitor := middleware.NewMonitoringMiddleware(metrics, logger)
	router.Use(monitor.PanicRecovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(monitor.HTTPMetrics())

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:  deps.Config.CORS.AllowedOrigins,
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	// 允许所有来源时不能同时列出具体来源
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowAllOrigins = true
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 健康检查
	if deps.Health != nil {
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, deps.Health.CheckHealth())
		})
		router.GET("/health/live", gin.WrapF(deps.Health.LiveHandler))
		router.GET("/health/ready", gin.WrapF(deps.Health.ReadyHandler))
	} else {
		router.GET("/health/live", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{})
		})
	}

	router.GET("/metrics", gin.WrapH(metrics.HTTPHandler()))

	handler := NewAPIHandler(deps.MailboxService, deps.MessageService, metrics, logger)
	limiter := middleware.NewIPRateLimiter(deps.Config.RateLimit.RequestsPerSecond, deps.Config.RateLimit.Burst)

	// 公共服务只有一个入口，通过 action 查询参数区分操作
	router.GET(deps.Config.Server.APIPath, middleware.RateLimitByIP(limiter, metrics), handler.Dispatch)

	return router
}
