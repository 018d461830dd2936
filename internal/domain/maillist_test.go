package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    Address
		wantErr bool
	}{
		{in: "abc@x.com", want: Address{Login: "abc", Domain: "x.com"}},
		{in: "a.b+c@mail.y.org", want: Address{Login: "a.b+c", Domain: "mail.y.org"}},
		{in: "abc", wantErr: true},
		{in: "@x.com", wantErr: true},
		{in: "abc@", wantErr: true},
		{in: "a@b@c", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SplitAddress(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestNewMailList(t *testing.T) {
	t.Run("保持顺序且下标对齐", func(t *testing.T) {
		list, err := NewMailList([]string{"abc@x.com", "def@y.com"})
		require.NoError(t, err)

		assert.Equal(t, 2, list.Len())
		assert.Equal(t, []string{"abc", "def"}, list.Logins)
		assert.Equal(t, []string{"x.com", "y.com"}, list.Domains)

		for i, raw := range []string{"abc@x.com", "def@y.com"} {
			addr, err := list.Address(i)
			require.NoError(t, err)
			assert.Equal(t, raw, addr.String())
		}
	})

	t.Run("空列表", func(t *testing.T) {
		list, err := NewMailList(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, list.Len())
		assert.Empty(t, list.Addresses())

		_, err = list.Address(0)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})

	t.Run("任一地址错误则整体失败", func(t *testing.T) {
		list, err := NewMailList([]string{"abc@x.com", "broken"})
		assert.Nil(t, list)
		assert.ErrorIs(t, err, ErrMalformedAddress)
		assert.Contains(t, err.Error(), "address 1")
	})

	t.Run("越界下标", func(t *testing.T) {
		list, err := NewMailList([]string{"abc@x.com"})
		require.NoError(t, err)

		_, err = list.Address(1)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		_, err = list.Address(-1)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

func TestStoredMessage_Wire(t *testing.T) {
	received := time.Date(2024, 3, 9, 14, 33, 55, 0, time.UTC)
	msg := &StoredMessage{
		ID:         42,
		Mailbox:    "abc@x.com",
		From:       "someone@example.com",
		Subject:    "Hi",
		ReceivedAt: received,
		Text:       "hello",
		Attachments: []*Attachment{
			{Filename: "a.pdf", ContentType: "application/pdf", Size: 3, Content: []byte("pdf")},
		},
	}

	summary := msg.Summary()
	assert.Equal(t, MailboxItem{ID: 42, From: "someone@example.com", Subject: "Hi", Date: "2024-03-09 14:33:55"}, summary)

	wire := msg.Wire()
	assert.Equal(t, "hello", wire.TextBody)
	assert.Equal(t, "hello", wire.Body)
	assert.Empty(t, wire.HTMLBody)
	require.Len(t, wire.Attachments, 1)

	var info map[string]any
	require.NoError(t, json.Unmarshal(wire.Attachments[0], &info))
	assert.Equal(t, "a.pdf", info["filename"])
	assert.NotContains(t, info, "content")

	msg.HTML = "<p>hello</p>"
	assert.Equal(t, "<p>hello</p>", msg.Wire().Body)
}

func TestMailbox_Expired(t *testing.T) {
	now := time.Now()
	mb := &Mailbox{CreatedAt: now.Add(-2 * time.Hour)}

	assert.True(t, mb.Expired(now, time.Hour))
	assert.False(t, mb.Expired(now, 3*time.Hour))
	assert.False(t, mb.Expired(now, 0))

	future := now.Add(time.Minute)
	mb.ExpiresAt = &future
	assert.False(t, mb.Expired(now, time.Hour))
}
