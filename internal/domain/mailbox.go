package domain

import (
	"time"
)

// Mailbox 表示沙箱服务中的一个临时邮箱。
type Mailbox struct {
	Address   string     `json:"address"`
	Login     string     `json:"login"`
	Domain    string     `json:"domain"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Expired 判断邮箱在 now 时刻是否已过期；ttl <= 0 且未设置 ExpiresAt 时永不过期。
func (m *Mailbox) Expired(now time.Time, ttl time.Duration) bool {
	if m.ExpiresAt != nil {
		return now.After(*m.ExpiresAt)
	}
	if ttl <= 0 {
		return false
	}
	return now.After(m.CreatedAt.Add(ttl))
}
