package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tempmail/secmail/internal/config"
	"tempmail/secmail/internal/domain"
	"tempmail/secmail/internal/storage"
	"tempmail/secmail/internal/storage/memory"
)

// MockStore 模拟邮箱存储接口
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveMailbox(mailbox *domain.Mailbox) error {
	args := m.Called(mailbox)
	return args.Error(0)
}

func (m *MockStore) GetMailbox(address string) (*domain.Mailbox, error) {
	args := m.Called(address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Mailbox), args.Error(1)
}

func (m *MockStore) ListMailboxes() ([]domain.Mailbox, error) {
	args := m.Called()
	return args.Get(0).([]domain.Mailbox), args.Error(1)
}

func (m *MockStore) DeleteExpiredMailboxes() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func testConfig(domains ...string) *config.Config {
	return &config.Config{
		Mailbox: config.MailboxConfig{
			AllowedDomains: domains,
			DefaultTTL:     24 * time.Hour,
		},
	}
}

func TestMailboxService_GenerateRandom(t *testing.T) {
	// 使用内存存储进行测试
	store := memory.NewStore(24 * time.Hour)
	service := NewMailboxService(store, testConfig("temp.mail", "test.com"))

	t.Run("创建随机邮箱成功", func(t *testing.T) {
		mailboxes, err := service.GenerateRandom(3)

		require.NoError(t, err)
		require.Len(t, mailboxes, 3)

		seen := make(map[string]bool)
		for _, mb := range mailboxes {
			assert.Len(t, mb.Login, 12)
			assert.Contains(t, []string{"temp.mail", "test.com"}, mb.Domain)
			assert.Equal(t, mb.Login+"@"+mb.Domain, mb.Address)
			assert.NotNil(t, mb.ExpiresAt)
			assert.False(t, seen[mb.Address])
			seen[mb.Address] = true

			stored, err := store.GetMailbox(mb.Address)
			require.NoError(t, err)
			assert.Equal(t, mb.Address, stored.Address)
		}
	})

	t.Run("数量为零返回空列表", func(t *testing.T) {
		mailboxes, err := service.GenerateRandom(0)

		require.NoError(t, err)
		assert.Empty(t, mailboxes)
	})

	t.Run("数量为负数失败", func(t *testing.T) {
		_, err := service.GenerateRandom(-1)

		assert.ErrorIs(t, err, ErrCountInvalid)
	})

	t.Run("恰好等于上限", func(t *testing.T) {
		mailboxes, err := service.GenerateRandom(MaxGenerate)

		require.NoError(t, err)
		assert.Len(t, mailboxes, MaxGenerate)
	})

	t.Run("超过上限失败", func(t *testing.T) {
		mailboxes, err := service.GenerateRandom(MaxGenerate + 1)

		assert.ErrorIs(t, err, ErrCountInvalid)
		assert.Nil(t, mailboxes)
	})
}

func TestMailboxService_GenerateRandom_StoreError(t *testing.T) {
	store := new(MockStore)
	store.On("SaveMailbox", mock.Anything).Return(errors.New("disk full"))

	service := NewMailboxService(store, testConfig("temp.mail"))

	_, err := service.GenerateRandom(1)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	store.AssertExpectations(t)
}

func TestMailboxService_Resolve(t *testing.T) {
	t.Run("已存在的邮箱直接返回", func(t *testing.T) {
		existing := &domain.Mailbox{Address: "abc@temp.mail", Login: "abc", Domain: "temp.mail"}
		store := new(MockStore)
		store.On("GetMailbox", "abc@temp.mail").Return(existing, nil)

		service := NewMailboxService(store, testConfig("temp.mail"))

		mb, err := service.Resolve("ABC", "Temp.Mail")

		require.NoError(t, err)
		assert.Same(t, existing, mb)
		store.AssertNotCalled(t, "SaveMailbox", mock.Anything)
	})

	t.Run("不存在时按需创建", func(t *testing.T) {
		store := new(MockStore)
		store.On("GetMailbox", "new.box@temp.mail").Return(nil, storage.ErrMailboxNotFound)
		store.On("SaveMailbox", mock.MatchedBy(func(mb *domain.Mailbox) bool {
			return mb.Address == "new.box@temp.mail" && mb.Login == "new.box"
		})).Return(nil)

		service := NewMailboxService(store, testConfig("temp.mail"))

		mb, err := service.Resolve("new.box", "temp.mail")

		require.NoError(t, err)
		assert.Equal(t, "new.box@temp.mail", mb.Address)
		store.AssertExpectations(t)
	})

	t.Run("域名不允许", func(t *testing.T) {
		service := NewMailboxService(new(MockStore), testConfig("temp.mail"))

		_, err := service.Resolve("abc", "evil.com")

		assert.ErrorIs(t, err, ErrDomainNotAllowed)
	})

	t.Run("登录名非法", func(t *testing.T) {
		service := NewMailboxService(new(MockStore), testConfig("temp.mail"))

		for _, login := range []string{"", "a b", "bad$", strings.Repeat("x", 65)} {
			_, err := service.Resolve(login, "temp.mail")
			assert.ErrorIs(t, err, ErrLoginInvalid, login)
		}
	})

	t.Run("存储错误透传", func(t *testing.T) {
		store := new(MockStore)
		store.On("GetMailbox", "abc@temp.mail").Return(nil, errors.New("connection refused"))

		service := NewMailboxService(store, testConfig("temp.mail"))

		_, err := service.Resolve("abc", "temp.mail")

		assert.EqualError(t, err, "connection refused")
	})
}

func TestMailboxService_Domains(t *testing.T) {
	service := NewMailboxService(new(MockStore), testConfig("Temp.Mail", "test.com", "temp.mail", " "))

	assert.Equal(t, []string{"temp.mail", "test.com"}, service.Domains())
	assert.True(t, service.Allowed("TEST.com"))
	assert.False(t, service.Allowed("other.org"))

	// 返回副本
	domains := service.Domains()
	domains[0] = "changed"
	assert.Equal(t, "temp.mail", service.Domains()[0])
}

func TestMailboxService_CleanupExpired(t *testing.T) {
	store := new(MockStore)
	store.On("DeleteExpiredMailboxes").Return(2, nil)

	service := NewMailboxService(store, testConfig("temp.mail"))

	count, err := service.CleanupExpired()

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
