package service

import (
	"errors"
	"time"

	"tempmail/secmail/internal/domain"
	"tempmail/secmail/internal/storage"
)

// ErrRecipientInvalid 收件地址不是合法的 login@domain
var ErrRecipientInvalid = errors.New("recipient invalid")

// MessageService 封装邮件处理逻辑。
type MessageService struct {
	repo      storage.MessageRepository
	mailboxes *MailboxService
}

// NewMessageService 创建邮件业务服务。
func NewMessageService(repo storage.MessageRepository, mailboxes *MailboxService) *MessageService {
	return &MessageService{repo: repo, mailboxes: mailboxes}
}

// DeliverInput 定义投递邮件的输入。
type DeliverInput struct {
	To          string // 收件地址 login@domain
	From        string
	Subject     string
	Text        string
	HTML        string
	Raw         string
	Received    time.Time
	Attachments []*domain.Attachment
}

// Deliver 将邮件保存到收件邮箱，邮箱不存在时按需创建。
func (s *MessageService) Deliver(input DeliverInput) (*domain.StoredMessage, error) {
	addr, err := domain.SplitAddress(input.To)
	if err != nil {
		return nil, ErrRecipientInvalid
	}

	mailbox, err := s.mailboxes.Resolve(addr.Login, addr.Domain)
	if err != nil {
		return nil, err
	}

	if input.Received.IsZero() {
		input.Received = time.Now().UTC()
	}

	message := &domain.StoredMessage{
		Mailbox:     mailbox.Address,
		From:        input.From,
		Subject:     input.Subject,
		ReceivedAt:  input.Received,
		Text:        input.Text,
		HTML:        input.HTML,
		Raw:         input.Raw,
		Attachments: input.Attachments,
	}

	if err := s.repo.SaveMessage(message); err != nil {
		return nil, err
	}
	return message, nil
}

// List 列出邮箱下的邮件摘要，最新的在前。
func (s *MessageService) List(login, domainName string) ([]domain.MailboxItem, error) {
	mailbox, err := s.mailboxes.Resolve(login, domainName)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(mailbox.Address)
	if err != nil {
		return nil, err
	}

	items := make([]domain.MailboxItem, 0, len(messages))
	for i := range messages {
		items = append(items, messages[i].Summary())
	}
	return items, nil
}

// Get 获取单封邮件详情。
func (s *MessageService) Get(login, domainName string, id int64) (*domain.StoredMessage, error) {
	mailbox, err := s.mailboxes.Resolve(login, domainName)
	if err != nil {
		return nil, err
	}
	return s.repo.GetMessage(mailbox.Address, id)
}
