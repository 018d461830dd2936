package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAPIBaseURL 公共临时邮箱服务的 API 入口
const DefaultAPIBaseURL = "https://www.1secmail.com/api/v1/"

// APIConfig 定义客户端访问远程邮件 API 的参数
type APIConfig struct {
	BaseURL   string        // API 基础地址，action 等参数以查询串形式追加
	Timeout   time.Duration // 单次 HTTP 请求的整体超时
	UserAgent string        // 请求头 User-Agent
}

// SessionConfig 定义交互式会话的行为
type SessionConfig struct {
	FailFast bool // 远程调用失败时直接退出，而不是回到命令循环
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 控制台格式输出
	File        string // 日志文件路径，留空则写入 stderr
}

// ServerConfig 定义沙箱服务的 HTTP 监听参数
type ServerConfig struct {
	Host    string // 监听地址，默认 "0.0.0.0"
	Port    int    // 监听端口，默认 8080
	APIPath string // API 路径，默认 "/api/v1/"
}

// MailboxConfig 定义沙箱邮箱配置
type MailboxConfig struct {
	AllowedDomains []string      // 可生成邮箱的域名列表
	DefaultTTL     time.Duration // 邮箱生存时间，过期后自动清理
}

// SMTPConfig 定义沙箱 SMTP 收件服务配置
type SMTPConfig struct {
	BindAddr string // 监听地址，格式 "host:port"
	Domain   string // HELO/EHLO 响应使用的域名
	MaxConns int    // 最大并发连接数
	MaxRate  int    // 每秒最多新建连接数
}

// CORSConfig 定义跨域配置
type CORSConfig struct {
	AllowedOrigins []string // "*" 表示允许所有来源
}

// RateLimitConfig 定义 API 按 IP 限流参数
type RateLimitConfig struct {
	RequestsPerSecond float64 // 每秒请求数，0 表示不限流
	Burst             int     // 令牌桶容量
}

// RedisConfig 定义 Redis 存储配置，Address 为空时使用内存存储
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// Config 是客户端与沙箱服务共用的配置根结构体
type Config struct {
	API       APIConfig
	Session   SessionConfig
	Log       LogConfig
	Server    ServerConfig
	Mailbox   MailboxConfig
	SMTP      SMTPConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

// Load 从环境变量和 .env 文件加载配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: TEMPMAIL_
// 例如: TEMPMAIL_API_BASE_URL, TEMPMAIL_LOG_LEVEL
//
// 不设置任何环境变量时，客户端直接访问公共服务。
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvPrefix("tempmail")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.user_agent", "secmail/0.1")
	v.SetDefault("session.fail_fast", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_path", "/api/v1/")
	v.SetDefault("mailbox.allowed_domains", "secmail.local")
	v.SetDefault("mailbox.default_ttl", "1h")
	v.SetDefault("smtp.bind_addr", ":2525")
	v.SetDefault("smtp.domain", "secmail.local")
	v.SetDefault("smtp.max_conns", 50)
	v.SetDefault("smtp.max_rate", 10)
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("ratelimit.requests_per_second", 5)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	baseURL := strings.TrimSpace(v.GetString("api.base_url"))
	if err := validateBaseURL(baseURL); err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(v.GetString("api.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid api.timeout: %w", err)
	}

	ttl, err := time.ParseDuration(v.GetString("mailbox.default_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid mailbox.default_ttl: %w", err)
	}

	domains := parseDomains(v.GetString("mailbox.allowed_domains"))
	if len(domains) == 0 {
		return nil, fmt.Errorf("mailbox.allowed_domains must not be empty")
	}

	origins := parseList(v.GetString("cors.allowed_origins"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	apiPath := v.GetString("server.api_path")
	if !strings.HasPrefix(apiPath, "/") {
		apiPath = "/" + apiPath
	}

	maxConns := v.GetInt("smtp.max_conns")
	if maxConns <= 0 {
		maxConns = 50
	}
	maxRate := v.GetInt("smtp.max_rate")
	if maxRate <= 0 {
		maxRate = 10
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:   baseURL,
			Timeout:   timeout,
			UserAgent: v.GetString("api.user_agent"),
		},
		Session: SessionConfig{
			FailFast: v.GetBool("session.fail_fast"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
			File:        v.GetString("log.file"),
		},
		Server: ServerConfig{
			Host:    v.GetString("server.host"),
			Port:    v.GetInt("server.port"),
			APIPath: apiPath,
		},
		Mailbox: MailboxConfig{
			AllowedDomains: domains,
			DefaultTTL:     ttl,
		},
		SMTP: SMTPConfig{
			BindAddr: v.GetString("smtp.bind_addr"),
			Domain:   v.GetString("smtp.domain"),
			MaxConns: maxConns,
			MaxRate:  maxRate,
		},
		CORS: CORSConfig{
			AllowedOrigins: origins,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("ratelimit.requests_per_second"),
			Burst:             v.GetInt("ratelimit.burst"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
	}

	return cfg, nil
}

// validateBaseURL 要求 API 地址是绝对的 http(s) URL
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api.base_url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q: missing host", raw)
	}
	return nil
}

// parseDomains 将逗号分隔的域名字符串解析为小写域名数组
func parseDomains(value string) []string {
	out := parseList(value)
	for i := range out {
		out[i] = strings.ToLower(out[i])
	}
	return out
}

// parseList 将逗号分隔的字符串解析为字符串切片，已去除空白字符
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：当前目录的 .env，然后是父目录的 .env。
// 文件不存在时静默跳过，已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
