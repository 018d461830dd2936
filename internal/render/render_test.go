package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempmail/secmail/internal/domain"
)

func TestPrinter_MailList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	list, err := domain.NewMailList([]string{"abc@x.com", "def@y.com"})
	require.NoError(t, err)

	p.MailList(list)

	out := buf.String()
	assert.Contains(t, out, "0 - abc@x.com\n")
	assert.Contains(t, out, "1 - def@y.com\n")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("0 - abc@x.com")), bytes.Index(buf.Bytes(), []byte("1 - def@y.com")))
}

func TestPrinter_Selected(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Selected(domain.Address{Login: "def", Domain: "y.com"})
	p.ActionHelp()

	assert.Contains(t, buf.String(), "Selected mail address: def@y.com\n")
	assert.Contains(t, buf.String(), ActionHelpText)
}

func TestPrinter_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Summary([]domain.MailboxItem{
		{ID: 7, From: "a@b.com", Subject: "Héllo – world", Date: "2024-03-09 14:33:55"},
	})

	out := buf.String()
	assert.Contains(t, out, "Message count: 1\n")
	assert.Contains(t, out, "Message id: 7\n")
	assert.Contains(t, out, "From: a@b.com\n")
	assert.Contains(t, out, "Subject: Héllo – world\n")
	assert.Contains(t, out, "Date: 2024-03-09 14:33:55\n")
}

func TestPrinter_EmptySummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Summary(nil)

	assert.Contains(t, buf.String(), "Message count: 0\n")
	assert.NotContains(t, buf.String(), "Message id:")
}

func TestPrinter_Message(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Message(&domain.Message{
		ID:          42,
		From:        "someone@example.com",
		Subject:     "Hi",
		Date:        "2024-03-09 14:33:55",
		Attachments: []json.RawMessage{json.RawMessage(`{"filename":"a.pdf"}`)},
		TextBody:    "hello",
		HTMLBody:    "<p>hello</p>",
	})

	out := buf.String()
	assert.Contains(t, out, "From: someone@example.com\n")
	assert.Contains(t, out, "Subject: Hi\n")
	assert.Contains(t, out, "Date: 2024-03-09 14:33:55\n")
	assert.Contains(t, out, "\nhello\n")
	assert.Contains(t, out, "(1 attachment(s))")
	assert.NotContains(t, out, "<p>")
}

func TestPrinter_Error(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Error(errors.New("boom"))

	assert.Equal(t, "error: boom\n", buf.String())
}
