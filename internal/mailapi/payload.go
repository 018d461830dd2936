package mailapi

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"tempmail/secmail/internal/domain"
)

var validate = validator.New()

// summaryPayload 对应 getMessages 数组中的一个元素。
// 字段使用指针，缺失与零值可以区分。
type summaryPayload struct {
	ID      *int64  `json:"id" validate:"required"`
	From    *string `json:"from" validate:"required"`
	Subject *string `json:"subject" validate:"required"`
	Date    *string `json:"date" validate:"required"`
}

func (p *summaryPayload) item() domain.MailboxItem {
	return domain.MailboxItem{ID: *p.ID, From: *p.From, Subject: *p.Subject, Date: *p.Date}
}

// messagePayload 对应 readMessage 的响应对象，所有字段都必须出现
type messagePayload struct {
	ID          *int64            `json:"id" validate:"required"`
	From        *string           `json:"from" validate:"required"`
	Subject     *string           `json:"subject" validate:"required"`
	Date        *string           `json:"date" validate:"required"`
	Attachments []json.RawMessage `json:"attachments" validate:"required"`
	Body        *string           `json:"body" validate:"required"`
	TextBody    *string           `json:"textBody" validate:"required"`
	HTMLBody    *string           `json:"htmlBody" validate:"required"`
}

func (p *messagePayload) message() *domain.Message {
	return &domain.Message{
		ID:          *p.ID,
		From:        *p.From,
		Subject:     *p.Subject,
		Date:        *p.Date,
		Attachments: p.Attachments,
		Body:        *p.Body,
		TextBody:    *p.TextBody,
		HTMLBody:    *p.HTMLBody,
	}
}

// decodeAddresses 解析 genRandomMailbox 的响应：长度恰为 count 的字符串数组
func decodeAddresses(body []byte, count int) (*domain.MailList, error) {
	var addresses []string
	if err := json.Unmarshal(body, &addresses); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if addresses == nil {
		return nil, fmt.Errorf("%w: expected array of addresses", ErrDecode)
	}
	if len(addresses) != count {
		return nil, fmt.Errorf("%w: expected %d addresses, got %d", ErrDecode, count, len(addresses))
	}

	list, err := domain.NewMailList(addresses)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return list, nil
}

// decodeSummary 解析 getMessages 的响应，任意元素不合法则整体失败
func decodeSummary(body []byte) ([]domain.MailboxItem, error) {
	var payload []*summaryPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: expected array of messages", ErrDecode)
	}

	items := make([]domain.MailboxItem, 0, len(payload))
	for i, p := range payload {
		if p == nil {
			return nil, fmt.Errorf("%w: message %d: expected object", ErrDecode, i)
		}
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("%w: message %d: %v", ErrDecode, i, err)
		}
		items = append(items, p.item())
	}
	return items, nil
}

// decodeMessage 解析 readMessage 的响应
func decodeMessage(body []byte) (*domain.Message, error) {
	var payload *messagePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: expected message object", ErrDecode)
	}
	if err := validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return payload.message(), nil
}
