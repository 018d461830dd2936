package mailapi

import "errors"

// 客户端错误分类，调用方使用 errors.Is 判断
var (
	// ErrTransport 请求无法构建或发送、响应体读取失败、或状态码不是 2xx
	ErrTransport = errors.New("mail service transport error")
	// ErrDecode 响应不是合法 JSON，或结构与预期不符
	ErrDecode = errors.New("mail service decode error")
	// ErrInvalidArgument 参数在发送请求前即被拒绝
	ErrInvalidArgument = errors.New("invalid argument")
)
