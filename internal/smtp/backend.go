package smtp

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"tempmail/secmail/internal/domain"
	"tempmail/secmail/internal/monitoring"
	"tempmail/secmail/internal/service"
)

// MaxMessageBytes 单封邮件大小上限
const MaxMessageBytes = 10 << 20

var (
	errTooManyConnections = &gosmtp.SMTPError{
		Code:         421,
		EnhancedCode: gosmtp.EnhancedCode{4, 7, 0},
		Message:      "too many connections, try again later",
	}
	errInvalidRecipient = &gosmtp.SMTPError{
		Code:         501,
		EnhancedCode: gosmtp.EnhancedCode{5, 1, 3},
		Message:      "invalid recipient address",
	}
	errRelayDenied = &gosmtp.SMTPError{
		Code:         550,
		EnhancedCode: gosmtp.EnhancedCode{5, 7, 1},
		Message:      "relay access denied - domain not managed by this server",
	}
	errNoRecipients = &gosmtp.SMTPError{
		Code:         554,
		EnhancedCode: gosmtp.EnhancedCode{5, 5, 1},
		Message:      "no valid recipients",
	}
)

// Backend 实现 go-smtp 的 Backend 接口。
//
// 只接收发往允许域名的邮件，不做任何转发。允许域名下的任意合法登录名
// 都可以收信，邮箱在第一次投递时创建。其他域名一律返回 550。
type Backend struct {
	mailboxes *service.MailboxService
	messages  *service.MessageService
	limiter   *ConnectionLimiter
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	validator *domain.EmailValidator
}

// NewBackend 创建 SMTP Backend，limiter 与 metrics 可以为 nil。
func NewBackend(
	mailboxes *service.MailboxService,
	messages *service.MessageService,
	limiter *ConnectionLimiter,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		mailboxes: mailboxes,
		messages:  messages,
		limiter:   limiter,
		metrics:   metrics,
		logger:    logger,
		validator: domain.NewEmailValidator(),
	}
}

// NewServer 创建配置好的 SMTP 服务器
func NewServer(be *Backend, addr, serverDomain string) *gosmtp.Server {
	s := gosmtp.NewServer(be)
	s.Addr = addr
	s.Domain = serverDomain
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 10 * time.Second
	s.MaxMessageBytes = MaxMessageBytes
	s.MaxRecipients = 50
	return s
}

// NewSession 创建新的 SMTP 会话。
func (b *Backend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	if b.limiter != nil && !b.limiter.Acquire() {
		if b.metrics != nil {
			b.metrics.RecordSMTPConnectionRejected()
		}
		b.logger.Warn("smtp connection rejected by limiter")
		return nil, errTooManyConnections
	}

	remote := ""
	if c != nil && c.Conn() != nil {
		remote = c.Conn().RemoteAddr().String()
	}

	return &session{
		backend: b,
		remote:  remote,
	}, nil
}

type session struct {
	backend     *Backend
	remote      string
	fromAddress string
	recipients  []string
	released    bool
}

// Mail 处理 MAIL 命令。
func (s *session) Mail(from string, _ *gosmtp.MailOptions) error {
	s.fromAddress = from
	return nil
}

// Rcpt 处理 RCPT 命令，只接受允许域名下的合法地址。
func (s *session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	rcpt := normalizeAddress(to)
	if err := s.backend.validator.ValidateEmail(rcpt); err != nil {
		s.rejectRecipient("invalid")
		return errInvalidRecipient
	}
	addr, _ := domain.SplitAddress(rcpt)

	if !s.backend.mailboxes.Allowed(addr.Domain) {
		s.rejectRecipient("domain")
		return errRelayDenied
	}

	if _, err := s.backend.mailboxes.Resolve(addr.Login, addr.Domain); err != nil {
		if errors.Is(err, service.ErrLoginInvalid) {
			s.rejectRecipient("invalid")
			return errInvalidRecipient
		}
		s.backend.logger.Error("failed to resolve recipient mailbox",
			zap.String("recipient", addr.String()),
			zap.Error(err),
		)
		return &gosmtp.SMTPError{
			Code:         451,
			EnhancedCode: gosmtp.EnhancedCode{4, 3, 0},
			Message:      "temporary failure, try again later",
		}
	}

	s.recipients = append(s.recipients, addr.String())
	return nil
}

func (s *session) rejectRecipient(reason string) {
	if s.backend.metrics != nil {
		s.backend.metrics.RecordSMTPRecipientRejected(reason)
	}
}

// Data 处理邮件内容，为每个收件人保存一份。
func (s *session) Data(r io.Reader) error {
	if len(s.recipients) == 0 {
		return errNoRecipients
	}

	rawBytes, err := io.ReadAll(io.LimitReader(r, MaxMessageBytes))
	if err != nil {
		return err
	}

	parsed, err := ParseEmail(rawBytes)
	if err != nil {
		if s.backend.metrics != nil {
			s.backend.metrics.RecordError("parse", "smtp")
		}
		return fmt.Errorf("parse email: %w", err)
	}

	from := parsed.From
	if from == "" {
		from = s.fromAddress
	}

	for _, rcpt := range s.recipients {
		message, err := s.backend.messages.Deliver(service.DeliverInput{
			To:          rcpt,
			From:        from,
			Subject:     parsed.Subject,
			Text:        parsed.Text,
			HTML:        parsed.HTML,
			Raw:         string(rawBytes),
			Attachments: parsed.Attachments,
		})
		if err != nil {
			if s.backend.metrics != nil {
				s.backend.metrics.RecordError("deliver", "smtp")
			}
			return err
		}

		if s.backend.metrics != nil {
			s.backend.metrics.RecordMessageReceived()
		}
		s.backend.logger.Info("message delivered",
			zap.String("recipient", rcpt),
			zap.Int64("id", message.ID),
			zap.String("remote", s.remote),
			zap.Int("size", len(rawBytes)),
		)
	}

	return nil
}

// Reset 重置状态。
func (s *session) Reset() {
	s.fromAddress = ""
	s.recipients = nil
}

// Logout 会话结束。
func (s *session) Logout() error {
	if s.backend.limiter != nil && !s.released {
		s.backend.limiter.Release()
		s.released = true
	}
	return nil
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.Trim(addr, "<>")
	return strings.ToLower(addr)
}
