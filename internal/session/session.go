// Package session 实现客户端的交互式命令循环。
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tempmail/secmail/internal/domain"
	"tempmail/secmail/internal/render"
)

// 提示语
const (
	PromptCount     = "Enter the number of random mail addresses:"
	PromptSelection = "Select the index of a mail address"
	PromptAction    = "Enter action:"
	PromptMessageID = "Enter message id:"
)

// 命令字符，与去除空白后输入行的首字节比较
const (
	ActionCheck = 'c'
	ActionRead  = 'r'
	ActionQuit  = 'q'
)

// maxLineBytes 单行输入的长度上限
const maxLineBytes = 64 << 10

// ErrInputClosed 用户退出前输入已结束
var ErrInputClosed = errors.New("input closed")

// MailService 会话使用的远程邮件服务
type MailService interface {
	GenerateRandomMailboxes(ctx context.Context, count int) (*domain.MailList, error)
	FetchMailboxSummary(ctx context.Context, login, domainName string) ([]domain.MailboxItem, error)
	FetchMessage(ctx context.Context, login, domainName string, id int64) (*domain.Message, error)
}

// State 命令循环的状态
type State int

const (
	StateAwaitingCount State = iota
	StateAwaitingSelection
	StateActionLoop
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingCount:
		return "awaiting_count"
	case StateAwaitingSelection:
		return "awaiting_selection"
	case StateActionLoop:
		return "action_loop"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option 会话配置项
type Option func(*Session)

// WithFailFast 远程调用失败时直接结束 Run 并返回该错误，
// 默认只输出错误并回到命令循环。
func WithFailFast(failFast bool) Option {
	return func(s *Session) {
		s.failFast = failFast
	}
}

// WithLogger 设置日志记录器
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.logger = log
		}
	}
}

// Session 持有一次运行中生成的邮箱列表与当前选中的地址
type Session struct {
	svc      MailService
	in       *bufio.Reader
	out      *render.Printer
	logger   *zap.Logger
	failFast bool

	state    State
	list     *domain.MailList
	selected domain.Address
}

// New 创建会话，从 in 读取命令，向 out 输出界面
func New(svc MailService, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		svc:    svc,
		in:     bufio.NewReader(in),
		out:    render.NewPrinter(out),
		logger: zap.NewNop(),
		state:  StateAwaitingCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State 返回当前状态
func (s *Session) State() State {
	return s.state
}

// Selected 返回选中的地址，进入命令循环后有效
func (s *Session) Selected() domain.Address {
	return s.selected
}

// Run 执行命令循环，直到用户退出、输入结束，
// 或在快速失败模式下远程调用出错。
func (s *Session) Run(ctx context.Context) error {
	for s.state != StateDone {
		if err := ctx.Err(); err != nil {
			return err
		}

		var (
			next State
			err  error
		)
		switch s.state {
		case StateAwaitingCount:
			next, err = s.awaitCount(ctx)
		case StateAwaitingSelection:
			next, err = s.awaitSelection()
		case StateActionLoop:
			next, err = s.actionLoop(ctx)
		default:
			return fmt.Errorf("unexpected session state %s", s.state)
		}
		if err != nil {
			return err
		}

		if next != s.state {
			s.logger.Debug("session state changed",
				zap.Stringer("from", s.state),
				zap.Stringer("to", next),
			)
		}
		s.state = next
	}
	return nil
}

func (s *Session) awaitCount(ctx context.Context) (State, error) {
	var count int
	for {
		s.out.Prompt(PromptCount)
		line, err := s.readLine()
		if err != nil {
			return s.state, err
		}

		n, err := strconv.Atoi(line)
		if err != nil || n < 0 {
			continue
		}
		if n == 0 {
			s.out.Notice("At least one address is required.")
			continue
		}
		count = n
		break
	}

	list, err := s.svc.GenerateRandomMailboxes(ctx, count)
	if err != nil {
		return s.serviceFailure(StateAwaitingCount, "generate mailboxes", err)
	}

	s.list = list
	s.out.MailList(list)
	return StateAwaitingSelection, nil
}

func (s *Session) awaitSelection() (State, error) {
	for {
		s.out.Prompt(PromptSelection)
		line, err := s.readLine()
		if err != nil {
			return s.state, err
		}

		i, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		addr, err := s.list.Address(i)
		if err != nil {
			continue
		}

		s.selected = addr
		s.out.Selected(addr)
		s.out.ActionHelp()
		return StateActionLoop, nil
	}
}

func (s *Session) actionLoop(ctx context.Context) (State, error) {
	s.out.Prompt(PromptAction)
	line, err := s.readLine()
	if err != nil {
		return s.state, err
	}
	if line == "" {
		return StateActionLoop, nil
	}

	switch line[0] {
	case ActionCheck:
		return s.checkMailbox(ctx)
	case ActionRead:
		return s.readMessage(ctx)
	case ActionQuit:
		return StateDone, nil
	default:
		return StateActionLoop, nil
	}
}

func (s *Session) checkMailbox(ctx context.Context) (State, error) {
	items, err := s.svc.FetchMailboxSummary(ctx, s.selected.Login, s.selected.Domain)
	if err != nil {
		return s.serviceFailure(StateActionLoop, "check mailbox", err)
	}
	s.out.Summary(items)
	return StateActionLoop, nil
}

func (s *Session) readMessage(ctx context.Context) (State, error) {
	var id int64
	for {
		s.out.Prompt(PromptMessageID)
		line, err := s.readLine()
		if err != nil {
			return s.state, err
		}

		n, err := strconv.ParseInt(line, 10, 64)
		if err != nil || n < 0 {
			continue
		}
		id = n
		break
	}

	msg, err := s.svc.FetchMessage(ctx, s.selected.Login, s.selected.Domain, id)
	if err != nil {
		return s.serviceFailure(StateActionLoop, "read message", err)
	}
	s.out.Message(msg)
	return StateActionLoop, nil
}

// serviceFailure 输出错误并返回恢复后的状态，快速失败模式下直接返回错误
func (s *Session) serviceFailure(resume State, op string, err error) (State, error) {
	s.logger.Warn("mail service call failed",
		zap.String("operation", op),
		zap.Bool("fail_fast", s.failFast),
		zap.Error(err),
	)
	if s.failFast {
		return s.state, fmt.Errorf("%s: %w", op, err)
	}
	s.out.Error(err)
	return resume, nil
}

// readLine 读取下一行并去除首尾空白。
//
// 超过 maxLineBytes 的行整行丢弃并返回空串，由调用方按无效输入重新提示。
func (s *Session) readLine() (string, error) {
	var (
		buf      []byte
		overlong bool
	)
	for {
		chunk, isPrefix, err := s.in.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("read input: %w", err)
			}
			if len(buf) == 0 && !overlong {
				return "", ErrInputClosed
			}
			break
		}

		if !overlong {
			if len(buf)+len(chunk) > maxLineBytes {
				overlong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			break
		}
	}

	if overlong {
		s.logger.Debug("input line too long, ignored", zap.Int("limit", maxLineBytes))
		return "", nil
	}
	return strings.TrimSpace(string(buf)), nil
}
