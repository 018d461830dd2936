package storage

import (
	"errors"

	"tempmail/secmail/internal/domain"
)

var (
	// ErrMailboxNotFound 邮箱不存在或已过期
	ErrMailboxNotFound = errors.New("mailbox not found")
	// ErrMessageNotFound 邮件不存在
	ErrMessageNotFound = errors.New("message not found")
)

// MailboxRepository 定义邮箱数据存取操作，邮箱以完整地址 login@domain 为键。
type MailboxRepository interface {
	SaveMailbox(mailbox *domain.Mailbox) error
	GetMailbox(address string) (*domain.Mailbox, error)
	ListMailboxes() ([]domain.Mailbox, error)
	DeleteExpiredMailboxes() (int, error) // 删除过期邮箱，返回删除数量
}

// MessageRepository 定义邮件数据存取操作。
type MessageRepository interface {
	// SaveMessage 保存邮件并分配正整数 ID，ID 在同一存储内递增
	SaveMessage(message *domain.StoredMessage) error
	// ListMessages 按 ID 从新到旧返回邮箱中的邮件
	ListMessages(address string) ([]domain.StoredMessage, error)
	GetMessage(address string, id int64) (*domain.StoredMessage, error)
}

// Store 定义完整的存储接口。
type Store interface {
	MailboxRepository
	MessageRepository

	// 工具方法
	Close() error
	Health() error
}
