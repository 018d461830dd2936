package memory

import (
	"sort"
	"sync"
	"time"

	"tempmail/secmail/internal/domain"
	"tempmail/secmail/internal/storage"
)

// Store 使用内存保存邮箱与邮件数据，主要用于开发验证。
type Store struct {
	mu        sync.RWMutex
	mailboxes map[string]*domain.Mailbox                  // address -> mailbox
	messages  map[string]map[int64]*domain.StoredMessage // address -> messageID -> message
	nextID    int64

	ttl time.Duration
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// NewStore 创建一个内存存储实例，ttl <= 0 表示邮箱永不过期。
func NewStore(ttl time.Duration) *Store {
	return &Store{
		mailboxes: make(map[string]*domain.Mailbox),
		messages:  make(map[string]map[int64]*domain.StoredMessage),
		ttl:       ttl,
		now:       time.Now,
	}
}

// SaveMailbox 保存邮箱信息，已存在的同地址邮箱会被覆盖。
func (s *Store) SaveMailbox(mailbox *domain.Mailbox) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneExpiredLocked()

	s.mailboxes[mailbox.Address] = mailbox
	return nil
}

// GetMailbox 根据完整地址获取邮箱。
func (s *Store) GetMailbox(address string) (*domain.Mailbox, error) {
	// 过期检查与删除在同一把写锁内完成，避免误删并发写入的新邮箱
	s.mu.Lock()
	defer s.mu.Unlock()

	mailbox, ok := s.mailboxes[address]
	if !ok {
		return nil, storage.ErrMailboxNotFound
	}
	if mailbox.Expired(s.now(), s.ttl) {
		s.deleteMailboxLocked(address)
		return nil, storage.ErrMailboxNotFound
	}
	return mailbox, nil
}

// ListMailboxes 返回全部未过期邮箱的快照，按创建时间排序。
func (s *Store) ListMailboxes() ([]domain.Mailbox, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneExpiredLocked()

	result := make([]domain.Mailbox, 0, len(s.mailboxes))
	for _, mb := range s.mailboxes {
		result = append(result, *mb)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteExpiredMailboxes 删除所有过期的邮箱，返回删除数量。
func (s *Store) DeleteExpiredMailboxes() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pruneExpiredLocked(), nil
}

func (s *Store) deleteMailboxLocked(address string) {
	delete(s.mailboxes, address)
	delete(s.messages, address)
}

// SaveMessage 保存邮件信息并分配 ID。
func (s *Store) SaveMessage(message *domain.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneExpiredLocked()

	if _, ok := s.mailboxes[message.Mailbox]; !ok {
		return storage.ErrMailboxNotFound
	}

	s.nextID++
	message.ID = s.nextID

	if _, ok := s.messages[message.Mailbox]; !ok {
		s.messages[message.Mailbox] = make(map[int64]*domain.StoredMessage)
	}
	s.messages[message.Mailbox][message.ID] = message
	return nil
}

// ListMessages 返回某个邮箱下的全部邮件，最新的在前。
func (s *Store) ListMessages(address string) ([]domain.StoredMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneExpiredLocked()

	if _, ok := s.mailboxes[address]; !ok {
		return nil, storage.ErrMailboxNotFound
	}

	msgMap := s.messages[address]
	result := make([]domain.StoredMessage, 0, len(msgMap))
	for _, msg := range msgMap {
		result = append(result, *msg)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// GetMessage 获取单封邮件。
func (s *Store) GetMessage(address string, id int64) (*domain.StoredMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneExpiredLocked()

	msgMap, ok := s.messages[address]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}

	msg, ok := msgMap[id]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}

	out := *msg
	return &out, nil
}

// pruneExpiredLocked 清理过期邮箱，返回清理数量。
func (s *Store) pruneExpiredLocked() int {
	now := s.now()
	count := 0
	for address, mb := range s.mailboxes {
		if mb.Expired(now, s.ttl) {
			s.deleteMailboxLocked(address)
			count++
		}
	}
	return count
}

// Close 关闭存储连接
func (s *Store) Close() error {
	// 内存存储不需要关闭连接
	return nil
}

// Health 健康检查
func (s *Store) Health() error {
	// 内存存储总是健康的
	return nil
}
