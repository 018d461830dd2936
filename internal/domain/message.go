package domain

import (
	"encoding/json"
	"time"
)

// DateLayout 是邮件服务 API 使用的日期格式。
const DateLayout = "2006-01-02 15:04:05"

// MailboxItem 是收件箱列表中的一条摘要，不含正文。
type MailboxItem struct {
	ID      int64  `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
}

// Message 是单封邮件的完整内容。
//
// Attachments 保留原始 JSON 节点，客户端不解析其结构。
type Message struct {
	ID          int64             `json:"id"`
	From        string            `json:"from"`
	Subject     string            `json:"subject"`
	Date        string            `json:"date"`
	Attachments []json.RawMessage `json:"attachments"`
	Body        string            `json:"body"`
	TextBody    string            `json:"textBody"`
	HTMLBody    string            `json:"htmlBody"`
}

// StoredMessage 表示沙箱服务保存的一封邮件。
type StoredMessage struct {
	ID          int64         `json:"id"`
	Mailbox     string        `json:"mailbox"` // 收件地址 login@domain
	From        string        `json:"from"`
	Subject     string        `json:"subject"`
	ReceivedAt  time.Time     `json:"receivedAt"`
	Text        string        `json:"text,omitempty"`
	HTML        string        `json:"html,omitempty"`
	Raw         string        `json:"raw,omitempty"`
	Attachments []*Attachment `json:"attachments,omitempty"`
}

// Summary 转换为收件箱摘要。
func (m *StoredMessage) Summary() MailboxItem {
	return MailboxItem{
		ID:      m.ID,
		From:    m.From,
		Subject: m.Subject,
		Date:    m.ReceivedAt.UTC().Format(DateLayout),
	}
}

// Wire 转换为 readMessage 接口返回的结构。
//
// body 与公共服务保持一致：有 HTML 时返回 HTML，否则返回纯文本。
func (m *StoredMessage) Wire() Message {
	body := m.HTML
	if body == "" {
		body = m.Text
	}

	attachments := make([]json.RawMessage, 0, len(m.Attachments))
	for _, att := range m.Attachments {
		if att == nil {
			continue
		}
		data, err := json.Marshal(att.Info())
		if err != nil {
			continue
		}
		attachments = append(attachments, data)
	}

	return Message{
		ID:          m.ID,
		From:        m.From,
		Subject:     m.Subject,
		Date:        m.ReceivedAt.UTC().Format(DateLayout),
		Attachments: attachments,
		Body:        body,
		TextBody:    m.Text,
		HTMLBody:    m.HTML,
	}
}
