package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tempmail/secmail/internal/config"
	"tempmail/secmail/internal/health"
	"tempmail/secmail/internal/logger"
	"tempmail/secmail/internal/monitoring"
	"tempmail/secmail/internal/service"
	"tempmail/secmail/internal/smtp"
	"tempmail/secmail/internal/storage"
	"tempmail/secmail/internal/storage/memory"
	redisstore "tempmail/secmail/internal/storage/redis"
	httptransport "tempmail/secmail/internal/transport/http"
)

// cleanupInterval 过期邮箱清理周期
const cleanupInterval = time.Hour

// main 启动本地沙箱服务：兼容公共服务的 HTTP API 与只收信的 SMTP。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.File,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting secmail sandbox",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
		zap.Strings("domains", cfg.Mailbox.AllowedDomains),
	)

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// run 启动全部服务并阻塞到 ctx 结束或任一服务失败，服务失败时返回该错误
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	store, err := openStore(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("store close failed", zap.Error(err))
		}
	}()

	metrics := monitoring.NewMetrics()
	healthChecker := health.NewHealthChecker(store, log)

	// 初始化服务层
	mailboxService := service.NewMailboxService(store, cfg)
	messageService := service.NewMessageService(store, mailboxService)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		MailboxService: mailboxService,
		MessageService: messageService,
		Health:         healthChecker,
		Metrics:        metrics,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 创建 SMTP 服务器
	limiter := smtp.NewConnectionLimiter(cfg.SMTP.MaxConns, cfg.SMTP.MaxRate)
	smtpBackend := smtp.NewBackend(mailboxService, messageService, limiter, metrics, log)
	smtpServer := smtp.NewServer(smtpBackend, cfg.SMTP.BindAddr, cfg.SMTP.Domain)

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server",
			zap.String("address", httpAddr),
			zap.String("api_path", cfg.Server.APIPath),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// SMTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting SMTP server",
			zap.String("address", cfg.SMTP.BindAddr),
			zap.String("domain", cfg.SMTP.Domain),
		)
		if err := smtpServer.ListenAndServe(); err != nil && groupCtx.Err() == nil {
			log.Error("SMTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 定时清理过期邮箱 goroutine
	group.Go(func() error {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		log.Info("starting expired mailbox cleanup task", zap.Duration("interval", cleanupInterval))

		for {
			select {
			case <-groupCtx.Done():
				log.Info("cleanup task stopped")
				return nil
			case <-ticker.C:
				count, err := mailboxService.CleanupExpired()
				if err != nil {
					log.Error("failed to cleanup expired mailboxes", zap.Error(err))
					metrics.RecordError("cleanup_error", "storage")
					continue
				}
				metrics.RecordMailboxesExpired(count)
				if count > 0 {
					log.Info("expired mailboxes cleaned up", zap.Int("count", count))
				}
			}
		}
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		if err := smtpServer.Close(); err != nil {
			log.Warn("SMTP server close warning", zap.Error(err))
		}

		log.Info("servers stopped")
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openStore 根据配置选择存储：配置了 Redis 地址时使用 Redis，否则使用内存
func openStore(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	if cfg.Redis.Address == "" {
		log.Info("using memory storage", zap.Duration("ttl", cfg.Mailbox.DefaultTTL))
		return memory.NewStore(cfg.Mailbox.DefaultTTL), nil
	}

	rdb, err := redisstore.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, err
	}
	log.Info("using redis storage",
		zap.String("address", cfg.Redis.Address),
		zap.Int("db", cfg.Redis.DB),
	)
	return redisstore.NewStore(rdb, cfg.Mailbox.DefaultTTL, log), nil
}
