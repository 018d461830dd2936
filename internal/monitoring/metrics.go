package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
//
// 指标注册在实例自己的 Registry 上，多个实例（例如测试中）互不冲突。
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 邮箱指标
	MailboxesGenerated prometheus.Counter
	MailboxesExpired   prometheus.Counter

	// 邮件指标
	MessagesReceived prometheus.Counter
	MessagesRead     prometheus.Counter

	// SMTP 指标
	SMTPConnectionsRejected prometheus.Counter
	SMTPRecipientsRejected  *prometheus.CounterVec

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter

	// 限流指标
	RateLimitBlocks *prometheus.CounterVec
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secmail_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "secmail_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		MailboxesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "secmail_mailboxes_generated_total",
			Help: "Total number of randomly generated mailboxes",
		}),

		MailboxesExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "secmail_mailboxes_expired_total",
			Help: "Total number of mailboxes removed after expiry",
		}),

		MessagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "secmail_messages_received_total",
			Help: "Total number of messages delivered over SMTP",
		}),

		MessagesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "secmail_messages_read_total",
			Help: "Total number of messages returned by readMessage",
		}),

		SMTPConnectionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "secmail_smtp_connections_rejected_total",
			Help: "Total number of SMTP connections refused by the limiter",
		}),

		SMTPRecipientsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secmail_smtp_recipients_rejected_total",
				Help: "Total number of rejected RCPT commands",
			},
			[]string{"reason"},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secmail_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "secmail_panics_total",
			Help: "Total number of recovered panics",
		}),

		RateLimitBlocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secmail_rate_limit_blocks_total",
				Help: "Total number of requests blocked by rate limiting",
			},
			[]string{"limit_type"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordMailboxesGenerated 记录生成的邮箱数量
func (m *Metrics) RecordMailboxesGenerated(count int) {
	m.MailboxesGenerated.Add(float64(count))
}

// RecordMailboxesExpired 记录清理的过期邮箱数量
func (m *Metrics) RecordMailboxesExpired(count int) {
	m.MailboxesExpired.Add(float64(count))
}

// RecordMessageReceived 记录邮件接收
func (m *Metrics) RecordMessageReceived() {
	m.MessagesReceived.Inc()
}

// RecordMessageRead 记录邮件读取
func (m *Metrics) RecordMessageRead() {
	m.MessagesRead.Inc()
}

// RecordSMTPConnectionRejected 记录被限流拒绝的 SMTP 连接
func (m *Metrics) RecordSMTPConnectionRejected() {
	m.SMTPConnectionsRejected.Inc()
}

// RecordSMTPRecipientRejected 记录被拒绝的收件人
func (m *Metrics) RecordSMTPRecipientRejected(reason string) {
	m.SMTPRecipientsRejected.WithLabelValues(reason).Inc()
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// RecordRateLimitBlock 记录限流阻止
func (m *Metrics) RecordRateLimitBlock(limitType string) {
	m.RateLimitBlocks.WithLabelValues(limitType).Inc()
}

// HTTPHandler 返回 /metrics 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
