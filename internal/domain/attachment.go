package domain

// Attachment 表示邮件附件。
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Content     []byte `json:"content,omitempty"`
}

// AttachmentInfo 是附件在 API 中的描述，不含内容。
type AttachmentInfo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Info 返回附件描述。
func (a *Attachment) Info() AttachmentInfo {
	return AttachmentInfo{
		Filename:    a.Filename,
		ContentType: a.ContentType,
		Size:        a.Size,
	}
}
