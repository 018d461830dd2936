package smtp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"tempmail/secmail/internal/domain"
)

// ParsedEmail 表示解析后的邮件内容。
type ParsedEmail struct {
	Subject     string
	From        string
	Text        string
	HTML        string
	Attachments []*domain.Attachment
}

// ParseEmail 解析邮件，提取主题、发件人、文本、HTML 和附件。
//
// 未知字符集不视为错误，对应部分按原始字节保留。
func ParseEmail(rawEmail []byte) (*ParsedEmail, error) {
	mr, err := mail.CreateReader(bytes.NewReader(rawEmail))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("parse mail: %w", err)
	}
	defer mr.Close()

	parsed := &ParsedEmail{
		Attachments: make([]*domain.Attachment, 0),
	}

	if subject, err := mr.Header.Subject(); err == nil {
		parsed.Subject = subject
	} else {
		parsed.Subject = mr.Header.Get("Subject")
	}

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		parsed.From = from[0].Address
	} else {
		parsed.From = strings.TrimSpace(mr.Header.Get("From"))
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("parse part: %w", err)
		}
		if part == nil {
			continue
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}

			mediaType, _, _ := h.ContentType()
			switch {
			case strings.HasPrefix(mediaType, "text/html"):
				if parsed.HTML == "" {
					parsed.HTML = string(body)
				}
			case mediaType == "" || strings.HasPrefix(mediaType, "text/plain"):
				if parsed.Text == "" {
					parsed.Text = string(body)
				}
			}

		case *mail.AttachmentHeader:
			content, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}

			filename, _ := h.Filename()
			if filename == "" {
				filename = "unnamed"
			}
			mediaType, _, _ := h.ContentType()

			parsed.Attachments = append(parsed.Attachments, &domain.Attachment{
				Filename:    filename,
				ContentType: mediaType,
				Size:        int64(len(content)),
				Content:     content,
			})
		}
	}

	return parsed, nil
}
