package smtp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseEmail_PlainText(t *testing.T) {
	raw := crlf(`From: Someone <someone@example.com>
To: abc@secmail.local
Subject: Hi
Content-Type: text/plain; charset=utf-8

hello
`)

	parsed, err := ParseEmail(raw)

	require.NoError(t, err)
	assert.Equal(t, "Hi", parsed.Subject)
	assert.Equal(t, "someone@example.com", parsed.From)
	assert.Equal(t, "hello\r\n", parsed.Text)
	assert.Empty(t, parsed.HTML)
	assert.Empty(t, parsed.Attachments)
}

func TestParseEmail_NoContentType(t *testing.T) {
	raw := crlf(`From: a@b.com
Subject: bare

just text
`)

	parsed, err := ParseEmail(raw)

	require.NoError(t, err)
	assert.Equal(t, "just text\r\n", parsed.Text)
}

func TestParseEmail_EncodedSubject(t *testing.T) {
	raw := crlf(`From: a@b.com
Subject: =?UTF-8?B?5rWL6K+V6YKu5Lu2?=
Content-Type: text/plain; charset=utf-8

body
`)

	parsed, err := ParseEmail(raw)

	require.NoError(t, err)
	assert.Equal(t, "测试邮件", parsed.Subject)
}

func TestParseEmail_MultipartWithAttachment(t *testing.T) {
	raw := crlf(`From: sender@example.com
To: abc@secmail.local
Subject: Report
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain; charset=utf-8

plain body
--inner
Content-Type: text/html; charset=utf-8

<p>html body</p>
--inner--
--outer
Content-Type: application/pdf
Content-Disposition: attachment; filename="report.pdf"
Content-Transfer-Encoding: base64

cGRm
--outer--
`)

	parsed, err := ParseEmail(raw)

	require.NoError(t, err)
	assert.Equal(t, "Report", parsed.Subject)
	assert.Equal(t, "plain body", strings.TrimSpace(parsed.Text))
	assert.Equal(t, "<p>html body</p>", strings.TrimSpace(parsed.HTML))
	require.Len(t, parsed.Attachments, 1)
	assert.Equal(t, "report.pdf", parsed.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", parsed.Attachments[0].ContentType)
	assert.Equal(t, []byte("pdf"), parsed.Attachments[0].Content)
	assert.Equal(t, int64(3), parsed.Attachments[0].Size)
}

func TestParseEmail_QuotedPrintable(t *testing.T) {
	raw := crlf(`From: a@b.com
Subject: qp
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: quoted-printable

caf=C3=A9
`)

	parsed, err := ParseEmail(raw)

	require.NoError(t, err)
	assert.Equal(t, "café", strings.TrimSpace(parsed.Text))
}
