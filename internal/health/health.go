package health

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"tempmail/secmail/internal/storage"
)

// maxGoroutines 超过该数量时就绪检查失败
const maxGoroutines = 10000

// HealthChecker 健康检查器
type HealthChecker struct {
	health healthcheck.Handler
	store  storage.Store
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(store storage.Store, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		logger: logger,
	}

	// 添加健康检查
	hc.addChecks()

	return hc
}

// addChecks 添加健康检查
func (hc *HealthChecker) addChecks() {
	// 存储连接检查，内存存储总是通过
	hc.health.AddLivenessCheck("store", func() error {
		if err := hc.store.Health(); err != nil {
			hc.logger.Warn("store health check failed", zap.Error(err))
			return err
		}
		return nil
	})

	hc.health.AddReadinessCheck("store", healthcheck.Timeout(hc.store.Health, 2*time.Second))
	hc.health.AddReadinessCheck("goroutines", healthcheck.GoroutineCountCheck(maxGoroutines))
}

// LiveHandler 存活检查
func (hc *HealthChecker) LiveHandler(w http.ResponseWriter, r *http.Request) {
	hc.health.LiveEndpoint(w, r)
}

// ReadyHandler 就绪检查
func (hc *HealthChecker) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	hc.health.ReadyEndpoint(w, r)
}

// CheckHealth 执行健康检查并返回各项结果
func (hc *HealthChecker) CheckHealth() map[string]string {
	results := make(map[string]string)

	if err := hc.store.Health(); err != nil {
		results["store"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["store"] = "OK"
	}
	results["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	// 当前未过期的邮箱数量
	if mailboxes, err := hc.store.ListMailboxes(); err != nil {
		results["mailboxes"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["mailboxes"] = fmt.Sprintf("%d", len(mailboxes))
	}

	return results
}
