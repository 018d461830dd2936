// Package render 负责交互式客户端的终端输出。
package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"tempmail/secmail/internal/domain"
)

// ActionHelpText 命令循环接受的操作说明
const ActionHelpText = "Check mailbox - 'c', Read message - 'r', Quit - 'q'"

var (
	colorAccent = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	colorMuted  = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	colorError  = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	colorNotice = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
)

// Printer 输出界面文本。样式绑定到 writer 自己的渲染器，
// writer 不是终端时输出纯文本。
type Printer struct {
	w io.Writer

	prompt  lipgloss.Style
	heading lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	errText lipgloss.Style
	notice  lipgloss.Style
}

// NewPrinter 创建写入 w 的 Printer
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		prompt:  r.NewStyle().Bold(true),
		heading: r.NewStyle().Bold(true).Foreground(colorAccent),
		label:   r.NewStyle().Foreground(colorMuted),
		muted:   r.NewStyle().Foreground(colorMuted),
		errText: r.NewStyle().Foreground(colorError),
		notice:  r.NewStyle().Foreground(colorNotice),
	}
}

// Prompt 输出提示行
func (p *Printer) Prompt(text string) {
	p.println(p.prompt.Render(text))
}

// MailList 按 "<i> - <address>" 列出生成的地址
func (p *Printer) MailList(list *domain.MailList) {
	p.println("")
	p.println(p.heading.Render("Random mail addresses:"))
	p.println("")
	for i, addr := range list.Addresses() {
		p.println(fmt.Sprintf("%d - %s", i, addr))
	}
	p.println("")
}

// Selected 输出选中的地址
func (p *Printer) Selected(addr domain.Address) {
	p.println("")
	p.println(p.label.Render("Selected mail address:") + " " + addr.String())
	p.println("")
}

// ActionHelp 输出可用操作
func (p *Printer) ActionHelp() {
	p.println(p.heading.Render("Actions:"))
	p.println(ActionHelpText)
	p.println("")
}

// Summary 输出邮件数量及每条摘要
func (p *Printer) Summary(items []domain.MailboxItem) {
	p.println("")
	p.println(p.heading.Render("Message count:") + " " + fmt.Sprint(len(items)))
	for _, item := range items {
		p.println("")
		p.field("Message id:", fmt.Sprint(item.ID))
		p.field("From:", item.From)
		p.field("Subject:", item.Subject)
		p.field("Date:", item.Date)
	}
	p.println("")
}

// Message 输出邮件头与纯文本正文
func (p *Printer) Message(msg *domain.Message) {
	p.println("")
	p.field("From:", msg.From)
	p.field("Subject:", msg.Subject)
	p.field("Date:", msg.Date)
	if n := len(msg.Attachments); n > 0 {
		p.println(p.muted.Render(fmt.Sprintf("(%d attachment(s))", n)))
	}
	p.println("")
	p.println(msg.TextBody)
	p.println("")
}

// Notice 输出提示信息
func (p *Printer) Notice(text string) {
	p.println(p.notice.Render(text))
}

// Error 输出失败的操作
func (p *Printer) Error(err error) {
	p.println(p.errText.Render("error:") + " " + err.Error())
}

func (p *Printer) field(name, value string) {
	p.println(p.label.Render(name) + " " + value)
}

func (p *Printer) println(s string) {
	fmt.Fprintln(p.w, s)
}
