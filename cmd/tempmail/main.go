package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"tempmail/secmail/internal/config"
	"tempmail/secmail/internal/logger"
	"tempmail/secmail/internal/mailapi"
	"tempmail/secmail/internal/session"
)

// main 启动交互式临时邮箱客户端。
//
// 界面输出写入 stdout，日志写入 stderr 或配置的日志文件。
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tempmail:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewFromLevel(cfg.Log.Level, cfg.Log.Development, cfg.Log.File)
	defer func() { _ = log.Sync() }()

	log.Debug("starting tempmail client",
		zap.String("api", cfg.API.BaseURL),
		zap.Duration("timeout", cfg.API.Timeout),
		zap.Bool("fail_fast", cfg.Session.FailFast),
	)

	client, err := mailapi.NewClient(cfg.API.BaseURL,
		mailapi.WithTimeout(cfg.API.Timeout),
		mailapi.WithUserAgent(cfg.API.UserAgent),
		mailapi.WithLogger(log.Named("mailapi")),
	)
	if err != nil {
		return err
	}

	s := session.New(client, os.Stdin, os.Stdout,
		session.WithFailFast(cfg.Session.FailFast),
		session.WithLogger(log.Named("session")),
	)

	err = s.Run(context.Background())
	switch {
	case err == nil, errors.Is(err, session.ErrInputClosed):
		log.Debug("session finished", zap.Stringer("state", s.State()))
		return nil
	default:
		return err
	}
}
