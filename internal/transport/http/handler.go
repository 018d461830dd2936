package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tempmail/secmail/internal/monitoring"
	"tempmail/secmail/internal/service"
)

// 支持的 action 取值
const (
	ActionGenRandomMailbox = "genRandomMailbox"
	ActionGetMessages      = "getMessages"
	ActionReadMessage      = "readMessage"
	ActionGetDomainList    = "getDomainList"
)

// APIHandler 实现与公共服务兼容的查询式 API
type APIHandler struct {
	mailboxes *service.MailboxService
	messages  *service.MessageService
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// NewAPIHandler 创建 API 处理器
func NewAPIHandler(
	mailboxService *service.MailboxService,
	messageService *service.MessageService,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *APIHandler {
	return &APIHandler{
		mailboxes: mailboxService,
		messages:  messageService,
		metrics:   metrics,
		logger:    logger,
	}
}

// ========== 请求参数 ==========

type generateQuery struct {
	Count int `form:"count,default=1" binding:"min=0"`
}

type mailboxQuery struct {
	Login  string `form:"login" binding:"required"`
	Domain string `form:"domain" binding:"required"`
}

type readQuery struct {
	mailboxQuery
	ID int64 `form:"id" binding:"required,min=1"`
}

// ========== API 处理器 ==========

// Dispatch 根据 action 查询参数分发请求
func (h *APIHandler) Dispatch(c *gin.Context) {
	switch c.Query("action") {
	case ActionGenRandomMailbox:
		h.GenRandomMailbox(c)
	case ActionGetMessages:
		h.GetMessages(c)
	case ActionReadMessage:
		h.ReadMessage(c)
	case ActionGetDomainList:
		h.GetDomainList(c)
	default:
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgUnknownAction})
	}
}

// GenRandomMailbox 生成随机邮箱，返回地址数组
//
// 参数:
//   - count: 数量，默认 1，超过上限时返回 400
func (h *APIHandler) GenRandomMailbox(c *gin.Context) {
	var q generateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgInvalidCount})
		return
	}

	mailboxes, err := h.mailboxes.GenerateRandom(q.Count)
	if err != nil {
		h.fail(c, ActionGenRandomMailbox, err)
		return
	}
	h.metrics.RecordMailboxesGenerated(len(mailboxes))

	addresses := make([]string, 0, len(mailboxes))
	for _, mailbox := range mailboxes {
		addresses = append(addresses, mailbox.Address)
	}
	c.JSON(http.StatusOK, addresses)
}

// GetMessages 返回邮箱的邮件摘要列表，最新的在前
func (h *APIHandler) GetMessages(c *gin.Context) {
	var q mailboxQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgInvalidRequest})
		return
	}

	items, err := h.messages.List(q.Login, q.Domain)
	if err != nil {
		h.fail(c, ActionGetMessages, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ReadMessage 返回单封邮件的完整内容
func (h *APIHandler) ReadMessage(c *gin.Context) {
	var q readQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgInvalidRequest})
		return
	}

	message, err := h.messages.Get(q.Login, q.Domain, q.ID)
	if err != nil {
		h.fail(c, ActionReadMessage, err)
		return
	}
	h.metrics.RecordMessageRead()

	c.JSON(http.StatusOK, message.Wire())
}

// GetDomainList 返回可用域名列表
func (h *APIHandler) GetDomainList(c *gin.Context) {
	c.JSON(http.StatusOK, h.mailboxes.Domains())
}

// fail 输出错误响应，服务端错误额外记录日志与指标
func (h *APIHandler) fail(c *gin.Context, action string, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("api request failed", zap.String("action", action), zap.Error(err))
		h.metrics.RecordError("service_error", "api")
	}
	c.JSON(status, errorResponse{Error: msg})
}
