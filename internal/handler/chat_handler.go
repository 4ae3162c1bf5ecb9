package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/config"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"github.com/vivahsetu/vivahsetu-backend/internal/middleware"
	"github.com/vivahsetu/vivahsetu-backend/internal/service"
	"github.com/vivahsetu/vivahsetu-backend/pkg/ginutil"
)

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	service service.ChatService
	cfg     config.ChatConfig
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service service.ChatService, cfg config.ChatConfig) *ChatHandler {
	return &ChatHandler{service: service, cfg: cfg}
}

// ListMessages handles GET /chat/messages/:userId
// @Summary Conversation history with one user
// @Tags chat
// @Produce json
// @Param userId path string true "Other user ID"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} common.APIResponse{data=[]domain.Message}
// @Router /chat/messages/{userId} [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	me := middleware.GetUserID(c)
	page, limit := ginutil.Pagination(c, h.cfg.DefaultPageSize, h.cfg.MaxPageSize)

	result, err := h.service.ListMessages(c.Request.Context(), me, c.Param("userId"), page, limit)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.SuccessResponse(c, result.Messages, &common.Meta{
		Page:    result.Page,
		Limit:   result.Limit,
		Total:   result.Total,
		HasMore: result.HasMore,
	})
}

// UnreadCounts handles GET /chat/unread
// @Summary Unread badges per sender
// @Tags chat
// @Produce json
// @Success 200 {object} common.APIResponse{data=domain.UnreadSummary}
// @Router /chat/unread [get]
func (h *ChatHandler) UnreadCounts(c *gin.Context) {
	summary, err := h.service.UnreadCounts(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessResponse(c, summary, nil)
}

// OnlineStatus handles GET /chat/online
// @Summary Online users visible to the caller
// @Tags chat
// @Produce json
// @Success 200 {object} common.APIResponse{data=domain.PresenceListPayload}
// @Router /chat/online [get]
func (h *ChatHandler) OnlineStatus(c *gin.Context) {
	online, err := h.service.OnlineStatus(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessResponse(c, domain.PresenceListPayload{OnlineUsers: online}, nil)
}

// SearchMessages handles GET /chat/search
// @Summary Search own conversations
// @Tags chat
// @Produce json
// @Param q query string true "Search text"
// @Param conversationId query string false "Restrict to one conversation"
// @Success 200 {object} common.APIResponse{data=[]domain.Message}
// @Router /chat/search [get]
func (h *ChatHandler) SearchMessages(c *gin.Context) {
	messages, err := h.service.SearchMessages(c.Request.Context(), middleware.GetUserID(c), c.Query("q"), c.Query("conversationId"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessResponse(c, messages, nil)
}

// ConversationInfo handles GET /chat/conversations/:userId
// @Summary Header for a conversation
// @Tags chat
// @Produce json
// @Param userId path string true "Other user ID"
// @Success 200 {object} common.APIResponse{data=domain.ConversationInfo}
// @Router /chat/conversations/{userId} [get]
func (h *ChatHandler) ConversationInfo(c *gin.Context) {
	info, err := h.service.ConversationInfo(c.Request.Context(), middleware.GetUserID(c), c.Param("userId"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessResponse(c, info, nil)
}

// ChatList handles GET /chat/list
// @Summary Conversations of the caller, newest first
// @Tags chat
// @Produce json
// @Param filter query string false "all, unread or online"
// @Success 200 {object} common.APIResponse{data=[]domain.ChatListItem}
// @Router /chat/list [get]
func (h *ChatHandler) ChatList(c *gin.Context) {
	filter, ok := domain.ParseChatListFilter(c.Query("filter"))
	if !ok {
		common.HandleError(c, common.Validation("unknown filter %q", c.Query("filter")))
		return
	}

	items, err := h.service.ChatList(c.Request.Context(), middleware.GetUserID(c), filter)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessResponse(c, items, nil)
}

// DeleteMessage handles DELETE /chat/messages/:messageId
// @Summary Delete an own message for the caller
// @Tags chat
// @Produce json
// @Param messageId path int true "Message ID"
// @Success 200 {object} common.APIResponse
// @Router /chat/messages/{messageId} [delete]
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	messageID, err := ginutil.ParamInt64(c, "messageId")
	if err != nil || messageID <= 0 {
		common.HandleError(c, common.Validation("invalid message id"))
		return
	}

	if err := h.service.DeleteMessage(c.Request.Context(), middleware.GetUserID(c), messageID); err != nil {
		common.HandleError(c, err)
		return
	}
	common.MessageResponse(c, "chat.message_deleted", gin.H{"messageId": messageID})
}

// DeleteConversation handles DELETE /chat/conversations/:userId
// @Summary Hide a whole conversation for the caller
// @Tags chat
// @Produce json
// @Param userId path string true "Other user ID"
// @Success 200 {object} common.APIResponse
// @Router /chat/conversations/{userId} [delete]
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	n, err := h.service.DeleteConversation(c.Request.Context(), middleware.GetUserID(c), c.Param("userId"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.MessageResponse(c, "chat.conversation_deleted", gin.H{"count": n})
}

// MarkRead handles POST /chat/read/:userId
// @Summary Mark a conversation read
// @Tags chat
// @Produce json
// @Param userId path string true "Other user ID"
// @Success 200 {object} common.APIResponse
// @Router /chat/read/{userId} [post]
func (h *ChatHandler) MarkRead(c *gin.Context) {
	n, err := h.service.MarkRead(c.Request.Context(), middleware.GetUserID(c), c.Param("userId"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.MessageResponse(c, "chat.marked_read", gin.H{"count": n})
}

// MarkAllRead handles POST /chat/read
// @Summary Mark every conversation read
// @Tags chat
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.ReadReceipt}
// @Router /chat/read [post]
func (h *ChatHandler) MarkAllRead(c *gin.Context) {
	receipts, err := h.service.MarkAllRead(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.MessageResponse(c, "chat.marked_read", receipts)
}
