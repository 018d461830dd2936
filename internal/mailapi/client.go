package mailapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"tempmail/secmail/internal/domain"
)

// API actions
const (
	ActionGenRandomMailbox = "genRandomMailbox"
	ActionGetMessages      = "getMessages"
	ActionReadMessage      = "readMessage"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "secmail/0.1"

	// 响应体上限，防止异常服务返回超大内容
	maxResponseSize = 10 << 20
)

// Client 是临时邮箱 HTTP API 的轻量封装。
//
// 每次调用发送一个阻塞的 GET 请求并严格解析 JSON 响应，
// 不重试、不缓存。失败时返回包装了 ErrTransport 或 ErrDecode 的错误。
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// Option 配置 Client
type Option func(*Client)

// WithHTTPClient 使用自定义 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout 设置单次请求的整体超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithUserAgent 设置请求头 User-Agent
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient 创建客户端
//
// 参数:
//   - baseURL: API 入口，例如 https://www.1secmail.com/api/v1/
//   - opts: 可选配置
//
// 返回值:
//   - *Client: 客户端
//   - error: baseURL 不是绝对 http(s) 地址时返回错误
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) url", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GenerateRandomMailboxes 请求服务生成 count 个随机邮箱地址
//
// 返回的列表保持服务端顺序，Logins[i] 与 Domains[i] 组成第 i 个地址。
// 响应中的地址数量必须恰好等于 count。
func (c *Client) GenerateRandomMailboxes(ctx context.Context, count int) (*domain.MailList, error) {
	if count < 0 {
		return nil, fmt.Errorf("%s: %w: count must be non-negative, got %d", ActionGenRandomMailbox, ErrInvalidArgument, count)
	}

	query := url.Values{}
	query.Set("count", strconv.Itoa(count))

	body, err := c.get(ctx, ActionGenRandomMailbox, query)
	if err != nil {
		return nil, err
	}

	list, err := decodeAddresses(body, count)
	if err != nil {
		c.logDecodeFailure(ActionGenRandomMailbox, err)
		return nil, fmt.Errorf("%s: %w", ActionGenRandomMailbox, err)
	}
	return list, nil
}

// FetchMailboxSummary 获取邮箱中的邮件摘要列表，顺序与服务端一致
func (c *Client) FetchMailboxSummary(ctx context.Context, login, domainName string) ([]domain.MailboxItem, error) {
	query := url.Values{}
	query.Set("login", login)
	query.Set("domain", domainName)

	body, err := c.get(ctx, ActionGetMessages, query)
	if err != nil {
		return nil, err
	}

	items, err := decodeSummary(body)
	if err != nil {
		c.logDecodeFailure(ActionGetMessages, err)
		return nil, fmt.Errorf("%s: %w", ActionGetMessages, err)
	}
	return items, nil
}

// FetchMessage 获取单封邮件的完整内容
func (c *Client) FetchMessage(ctx context.Context, login, domainName string, id int64) (*domain.Message, error) {
	query := url.Values{}
	query.Set("login", login)
	query.Set("domain", domainName)
	query.Set("id", strconv.FormatInt(id, 10))

	body, err := c.get(ctx, ActionReadMessage, query)
	if err != nil {
		return nil, err
	}

	msg, err := decodeMessage(body)
	if err != nil {
		c.logDecodeFailure(ActionReadMessage, err)
		return nil, fmt.Errorf("%s: %w", ActionReadMessage, err)
	}
	return msg, nil
}

// get 发送 GET <baseURL>?action=<action>&<query> 并返回响应体
func (c *Client) get(ctx context.Context, action string, query url.Values) ([]byte, error) {
	query.Set("action", action)

	u := *c.baseURL
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: create request: %v", action, ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("mail service request failed",
			zap.String("action", action),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: %w: %v", action, ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: read response: %v", action, ErrTransport, err)
	}

	c.logger.Debug("mail service request",
		zap.String("action", action),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("mail service returned error status",
			zap.String("action", action),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%s: %w: unexpected status %d", action, ErrTransport, resp.StatusCode)
	}

	return body, nil
}

func (c *Client) logDecodeFailure(action string, err error) {
	c.logger.Warn("mail service response rejected",
		zap.String("action", action),
		zap.Error(err),
	)
}
