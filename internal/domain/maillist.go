package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedAddress 地址不是 login@domain 形式
	ErrMalformedAddress = errors.New("malformed mail address")
	// ErrIndexOutOfRange 选择的下标超出邮箱列表范围
	ErrIndexOutOfRange = errors.New("mailbox index out of range")
)

// Address 表示一个临时邮箱地址（login@domain）。
type Address struct {
	Login  string
	Domain string
}

// String 返回 login@domain。
func (a Address) String() string {
	return a.Login + "@" + a.Domain
}

// SplitAddress 将 "login@domain" 拆分为 Address。
//
// 地址中必须恰好有一个 '@'，且两侧都不能为空。
func SplitAddress(s string) (Address, error) {
	login, domain, ok := strings.Cut(s, "@")
	if !ok || login == "" || domain == "" || strings.Contains(domain, "@") {
		return Address{}, fmt.Errorf("%w: %q", ErrMalformedAddress, s)
	}
	return Address{Login: login, Domain: domain}, nil
}

// MailList 是一次“生成随机邮箱”调用的结果，Logins 与 Domains 按下标一一对应。
// 创建后不再修改。
type MailList struct {
	Logins  []string
	Domains []string
}

// NewMailList 按顺序拆分地址列表，任意一个地址格式错误都会导致整体失败。
func NewMailList(addresses []string) (*MailList, error) {
	list := &MailList{
		Logins:  make([]string, 0, len(addresses)),
		Domains: make([]string, 0, len(addresses)),
	}
	for i, raw := range addresses {
		addr, err := SplitAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("address %d: %w", i, err)
		}
		list.Logins = append(list.Logins, addr.Login)
		list.Domains = append(list.Domains, addr.Domain)
	}
	return list, nil
}

// Len 返回列表中的地址数量。
func (l *MailList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Logins)
}

// Address 返回第 i 个地址。
func (l *MailList) Address(i int) (Address, error) {
	if i < 0 || i >= l.Len() {
		return Address{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, l.Len())
	}
	return Address{Login: l.Logins[i], Domain: l.Domains[i]}, nil
}

// Addresses 按顺序返回全部地址。
func (l *MailList) Addresses() []Address {
	out := make([]Address, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		out = append(out, Address{Login: l.Logins[i], Domain: l.Domains[i]})
	}
	return out
}
