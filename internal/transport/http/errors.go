package httptransport

import (
	"errors"
	"net/http"

	"tempmail/secmail/internal/service"
	"tempmail/secmail/internal/storage"
)

// errorResponse 错误响应，与公共服务保持相同的扁平格式
type errorResponse struct {
	Error string `json:"error"`
}

// 通用错误消息
const (
	MsgUnknownAction   = "unknown action"
	MsgInvalidRequest  = "invalid request"
	MsgInvalidDomain   = "invalid domain"
	MsgInvalidLogin    = "invalid login"
	MsgInvalidCount    = "invalid count"
	MsgMessageNotFound = "message not found"
	MsgInternalError   = "internal server error"
)

// errorStatus 将业务错误映射为 HTTP 状态码与提示信息
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrDomainNotAllowed):
		return http.StatusBadRequest, MsgInvalidDomain
	case errors.Is(err, service.ErrLoginInvalid):
		return http.StatusBadRequest, MsgInvalidLogin
	case errors.Is(err, service.ErrCountInvalid):
		return http.StatusBadRequest, MsgInvalidCount
	case errors.Is(err, storage.ErrMessageNotFound):
		return http.StatusNotFound, MsgMessageNotFound
	default:
		return http.StatusInternalServerError, MsgInternalError
	}
}
