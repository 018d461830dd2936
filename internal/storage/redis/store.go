package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tempmail/secmail/internal/domain"
	"tempmail/secmail/internal/storage"
)

const (
	keyMailboxIndex = "mailboxes"
	keyMessageSeq   = "message:seq"

	opTimeout = 3 * time.Second
)

func mailboxKey(address string) string {
	return fmt.Sprintf("mailbox:%s", address)
}

func messagesKey(address string) string {
	return fmt.Sprintf("messages:%s", address)
}

func messageKey(address string, id int64) string {
	return fmt.Sprintf("message:%s:%d", address, id)
}

// Store 基于 Redis 的存储实现。
//
// 键布局：
//   - mailbox:{address}      邮箱 JSON，随邮箱 TTL 过期
//   - mailboxes              全部邮箱地址集合，供清理任务遍历
//   - messages:{address}     有序集合，成员为邮件 ID，分值同 ID
//   - message:{address}:{id} 邮件 JSON，过期时间与邮箱一致
//   - message:seq            邮件 ID 计数器
type Store struct {
	rdb *goredis.Client
	ttl time.Duration
	log *zap.Logger
}

var _ storage.Store = (*Store)(nil)

// NewStore 使用已连接的客户端创建存储，ttl <= 0 表示邮箱永不过期。
func NewStore(rdb *goredis.Client, ttl time.Duration, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{rdb: rdb, ttl: ttl, log: log}
}

func (s *Store) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// expiration 计算邮箱剩余生存时间，0 表示不过期
func (s *Store) expiration(mailbox *domain.Mailbox) time.Duration {
	if mailbox.ExpiresAt != nil {
		d := time.Until(*mailbox.ExpiresAt)
		if d <= 0 {
			return time.Millisecond
		}
		return d
	}
	if s.ttl <= 0 {
		return 0
	}
	d := time.Until(mailbox.CreatedAt.Add(s.ttl))
	if d <= 0 {
		return time.Millisecond
	}
	return d
}

// SaveMailbox 保存邮箱
func (s *Store) SaveMailbox(mailbox *domain.Mailbox) error {
	ctx, cancel := s.opContext()
	defer cancel()

	data, err := json.Marshal(mailbox)
	if err != nil {
		return fmt.Errorf("marshal mailbox: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, mailboxKey(mailbox.Address), data, s.expiration(mailbox))
	pipe.SAdd(ctx, keyMailboxIndex, mailbox.Address)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save mailbox: %w", err)
	}
	return nil
}

// GetMailbox 根据完整地址获取邮箱
func (s *Store) GetMailbox(address string) (*domain.Mailbox, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	return s.getMailbox(ctx, address)
}

func (s *Store) getMailbox(ctx context.Context, address string) (*domain.Mailbox, error) {
	data, err := s.rdb.Get(ctx, mailboxKey(address)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrMailboxNotFound
		}
		return nil, fmt.Errorf("get mailbox: %w", err)
	}

	var mailbox domain.Mailbox
	if err := json.Unmarshal(data, &mailbox); err != nil {
		return nil, fmt.Errorf("unmarshal mailbox: %w", err)
	}
	return &mailbox, nil
}

// ListMailboxes 返回全部未过期邮箱
func (s *Store) ListMailboxes() ([]domain.Mailbox, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	addresses, err := s.rdb.SMembers(ctx, keyMailboxIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("list mailboxes: %w", err)
	}

	result := make([]domain.Mailbox, 0, len(addresses))
	for _, address := range addresses {
		mb, err := s.getMailbox(ctx, address)
		if errors.Is(err, storage.ErrMailboxNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, *mb)
	}
	return result, nil
}

// purge 删除邮箱相关的全部键
func (s *Store) purge(ctx context.Context, address string) error {
	ids, err := s.rdb.ZRange(ctx, messagesKey(address), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("list message ids: %w", err)
	}

	keys := []string{mailboxKey(address), messagesKey(address)}
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, messageKey(address, id))
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.SRem(ctx, keyMailboxIndex, address)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("purge mailbox: %w", err)
	}
	return nil
}

// DeleteExpiredMailboxes 清理索引中已过期的邮箱
//
// 邮箱键由 Redis TTL 自动过期，这里只负责移除索引和残留的邮件列表。
func (s *Store) DeleteExpiredMailboxes() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	addresses, err := s.rdb.SMembers(ctx, keyMailboxIndex).Result()
	if err != nil {
		return 0, fmt.Errorf("list mailboxes: %w", err)
	}

	count := 0
	for _, address := range addresses {
		n, err := s.rdb.Exists(ctx, mailboxKey(address)).Result()
		if err != nil {
			return count, fmt.Errorf("check mailbox: %w", err)
		}
		if n > 0 {
			continue
		}
		if err := s.purge(ctx, address); err != nil {
			s.log.Warn("failed to purge expired mailbox",
				zap.String("address", address),
				zap.Error(err),
			)
			continue
		}
		count++
	}
	return count, nil
}

// SaveMessage 保存邮件，ID 由 message:seq 计数器分配
func (s *Store) SaveMessage(message *domain.StoredMessage) error {
	ctx, cancel := s.opContext()
	defer cancel()

	ttl, err := s.rdb.PTTL(ctx, mailboxKey(message.Mailbox)).Result()
	if err != nil {
		return fmt.Errorf("get mailbox ttl: %w", err)
	}
	// PTTL 返回 -2 表示键不存在，-1 表示未设置过期时间
	if ttl == -2 {
		return storage.ErrMailboxNotFound
	}
	if ttl < 0 {
		ttl = 0
	}

	id, err := s.rdb.Incr(ctx, keyMessageSeq).Result()
	if err != nil {
		return fmt.Errorf("allocate message id: %w", err)
	}
	message.ID = id

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, messageKey(message.Mailbox, id), data, ttl)
	pipe.ZAdd(ctx, messagesKey(message.Mailbox), goredis.Z{Score: float64(id), Member: id})
	if ttl > 0 {
		pipe.PExpire(ctx, messagesKey(message.Mailbox), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// ListMessages 按 ID 从新到旧返回邮件
func (s *Store) ListMessages(address string) ([]domain.StoredMessage, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	n, err := s.rdb.Exists(ctx, mailboxKey(address)).Result()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if n == 0 {
		return nil, storage.ErrMailboxNotFound
	}

	ids, err := s.rdb.ZRevRange(ctx, messagesKey(address), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list message ids: %w", err)
	}
	if len(ids) == 0 {
		return []domain.StoredMessage{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, messageKey(address, id))
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	result := make([]domain.StoredMessage, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var msg domain.StoredMessage
		if err := json.Unmarshal([]byte(str), &msg); err != nil {
			s.log.Warn("skipping corrupt message", zap.String("address", address), zap.Error(err))
			continue
		}
		result = append(result, msg)
	}
	return result, nil
}

// GetMessage 获取单封邮件
func (s *Store) GetMessage(address string, id int64) (*domain.StoredMessage, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	data, err := s.rdb.Get(ctx, messageKey(address, id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrMessageNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}

	var msg domain.StoredMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	return &msg, nil
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Health 测试 Redis 连接
func (s *Store) Health() error {
	ctx, cancel := s.opContext()
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}
