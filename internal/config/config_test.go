package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"TEMPMAIL_API_BASE_URL",
	"TEMPMAIL_API_TIMEOUT",
	"TEMPMAIL_SESSION_FAIL_FAST",
	"TEMPMAIL_LOG_LEVEL",
	"TEMPMAIL_LOG_DEVELOPMENT",
	"TEMPMAIL_SERVER_PORT",
	"TEMPMAIL_SERVER_API_PATH",
	"TEMPMAIL_MAILBOX_ALLOWED_DOMAINS",
	"TEMPMAIL_MAILBOX_DEFAULT_TTL",
	"TEMPMAIL_SMTP_BIND_ADDR",
	"TEMPMAIL_SMTP_MAX_CONNS",
	"TEMPMAIL_CORS_ALLOWED_ORIGINS",
	"TEMPMAIL_RATELIMIT_REQUESTS_PER_SECOND",
	"TEMPMAIL_REDIS_ADDRESS",
}

// clearEnv 清空相关环境变量，t.Setenv 会在测试结束后恢复原值
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("加载默认配置成功", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.API.Timeout)
		assert.False(t, cfg.Session.FailFast)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Empty(t, cfg.Log.File)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "/api/v1/", cfg.Server.APIPath)
		assert.Equal(t, []string{"secmail.local"}, cfg.Mailbox.AllowedDomains)
		assert.Equal(t, time.Hour, cfg.Mailbox.DefaultTTL)
		assert.Equal(t, ":2525", cfg.SMTP.BindAddr)
		assert.Equal(t, 50, cfg.SMTP.MaxConns)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, float64(5), cfg.RateLimit.RequestsPerSecond)
		assert.Empty(t, cfg.Redis.Address)
	})

	t.Run("加载自定义配置成功", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TEMPMAIL_API_BASE_URL", "http://127.0.0.1:8080/api/v1/")
		t.Setenv("TEMPMAIL_API_TIMEOUT", "5s")
		t.Setenv("TEMPMAIL_SESSION_FAIL_FAST", "true")
		t.Setenv("TEMPMAIL_LOG_LEVEL", "debug")
		t.Setenv("TEMPMAIL_SERVER_API_PATH", "mail")
		t.Setenv("TEMPMAIL_MAILBOX_ALLOWED_DOMAINS", "Custom.Mail, test.dev")
		t.Setenv("TEMPMAIL_MAILBOX_DEFAULT_TTL", "2h")
		t.Setenv("TEMPMAIL_CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
		t.Setenv("TEMPMAIL_REDIS_ADDRESS", "localhost:6379")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:8080/api/v1/", cfg.API.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.API.Timeout)
		assert.True(t, cfg.Session.FailFast)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "/mail", cfg.Server.APIPath)
		assert.Equal(t, []string{"custom.mail", "test.dev"}, cfg.Mailbox.AllowedDomains)
		assert.Equal(t, 2*time.Hour, cfg.Mailbox.DefaultTTL)
		assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	})

	t.Run("非法的API地址失败", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TEMPMAIL_API_BASE_URL", "ftp://example.com/api")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "api.base_url")
	})

	t.Run("非法的超时时间失败", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TEMPMAIL_API_TIMEOUT", "soon")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "api.timeout")
	})

	t.Run("空域名列表失败", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TEMPMAIL_MAILBOX_ALLOWED_DOMAINS", " , ")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseList(" a ,, b "))
	assert.Empty(t, parseList(""))
	assert.Equal(t, []string{"x.com", "y.com"}, parseDomains("X.com,Y.COM"))
}
