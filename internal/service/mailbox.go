package service

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tempmail/secmail/internal/config"
	"tempmail/secmail/internal/domain"
	"tempmail/secmail/internal/storage"
)

// MaxGenerate 单次最多生成的邮箱数量
const MaxGenerate = 500

var (
	ErrDomainNotAllowed = errors.New("domain not allowed")
	ErrLoginInvalid     = errors.New("login invalid")
	ErrCountInvalid     = errors.New("count must be between 0 and 500")
)

// MailboxService 封装邮箱相关业务操作。
//
// 与公共服务一致，允许域名下的任意合法登录名都是有效邮箱，
// 第一次访问时按需创建。
type MailboxService struct {
	repo           storage.MailboxRepository
	domains        []string
	domainSet      map[string]struct{}
	ttl            time.Duration
	emailValidator *domain.EmailValidator

	mu     sync.Mutex // 保护 random
	random *rand.Rand
}

// NewMailboxService 创建邮箱业务服务。
func NewMailboxService(repo storage.MailboxRepository, cfg *config.Config) *MailboxService {
	domains := make([]string, 0, len(cfg.Mailbox.AllowedDomains))
	domainSet := make(map[string]struct{}, len(cfg.Mailbox.AllowedDomains))
	for _, d := range cfg.Mailbox.AllowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if _, dup := domainSet[d]; d == "" || dup {
			continue
		}
		domainSet[d] = struct{}{}
		domains = append(domains, d)
	}

	return &MailboxService{
		repo:           repo,
		domains:        domains,
		domainSet:      domainSet,
		ttl:            cfg.Mailbox.DefaultTTL,
		emailValidator: domain.NewEmailValidator(),
		random:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateRandom 生成 count 个随机邮箱。
//
// 参数:
//   - count: 数量，范围 [0, MaxGenerate]
//
// 返回值:
//   - []*domain.Mailbox: 按创建顺序排列的邮箱，数量恰为 count
//   - error: count 超出范围或存储失败时返回错误
func (s *MailboxService) GenerateRandom(count int) ([]*domain.Mailbox, error) {
	if count < 0 || count > MaxGenerate {
		return nil, ErrCountInvalid
	}
	if len(s.domains) == 0 {
		return nil, ErrDomainNotAllowed
	}

	mailboxes := make([]*domain.Mailbox, 0, count)
	for i := 0; i < count; i++ {
		mailbox := s.newMailbox(s.generateRandomLocalPart(), s.pickRandomDomain())
		if err := s.repo.SaveMailbox(mailbox); err != nil {
			return nil, fmt.Errorf("save mailbox %s: %w", mailbox.Address, err)
		}
		mailboxes = append(mailboxes, mailbox)
	}
	return mailboxes, nil
}

// Resolve 返回 login@domainName 对应的邮箱，不存在时创建。
func (s *MailboxService) Resolve(login, domainName string) (*domain.Mailbox, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	domainName = strings.ToLower(strings.TrimSpace(domainName))

	if _, ok := s.domainSet[domainName]; !ok {
		return nil, ErrDomainNotAllowed
	}
	if err := s.emailValidator.ValidateAddress(domain.Address{Login: login, Domain: domainName}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoginInvalid, err)
	}

	address := login + "@" + domainName
	mailbox, err := s.repo.GetMailbox(address)
	if err == nil {
		return mailbox, nil
	}
	if !errors.Is(err, storage.ErrMailboxNotFound) {
		return nil, err
	}

	mailbox = s.newMailbox(login, domainName)
	if err := s.repo.SaveMailbox(mailbox); err != nil {
		return nil, err
	}
	return mailbox, nil
}

// Allowed 判断域名是否可以收信。
func (s *MailboxService) Allowed(domainName string) bool {
	_, ok := s.domainSet[strings.ToLower(strings.TrimSpace(domainName))]
	return ok
}

// Domains 返回允许的域名列表。
func (s *MailboxService) Domains() []string {
	out := make([]string, len(s.domains))
	copy(out, s.domains)
	return out
}

// CleanupExpired 删除过期邮箱，返回删除数量。
func (s *MailboxService) CleanupExpired() (int, error) {
	return s.repo.DeleteExpiredMailboxes()
}

func (s *MailboxService) newMailbox(login, domainName string) *domain.Mailbox {
	now := time.Now().UTC()
	mailbox := &domain.Mailbox{
		Address:   login + "@" + domainName,
		Login:     login,
		Domain:    domainName,
		CreatedAt: now,
	}
	if s.ttl > 0 {
		expiresAt := now.Add(s.ttl)
		mailbox.ExpiresAt = &expiresAt
	}
	return mailbox
}

// pickRandomDomain 随机挑选一个允许的域名。
func (s *MailboxService) pickRandomDomain() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domains[s.random.Intn(len(s.domains))]
}

// generateRandomLocalPart 生成随机前缀。
func (s *MailboxService) generateRandomLocalPart() string {
	// base on uuid truncated for uniqueness + randomness
	base := strings.ToLower(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return base[:12]
}
