package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/middleware"
	"github.com/vivahsetu/vivahsetu-backend/internal/service"
)

// BlockHandler handles user block HTTP requests
type BlockHandler struct {
	service service.BlockService
}

// NewBlockHandler creates a new BlockHandler
func NewBlockHandler(service service.BlockService) *BlockHandler {
	return &BlockHandler{service: service}
}

// BlockUser handles POST /users/:userId/block
// @Summary Block a user
// @Tags block
// @Produce json
// @Param userId path string true "User to block"
// @Success 200 {object} common.APIResponse{data=domain.BlockResponse}
// @Router /users/{userId}/block [post]
func (h *BlockHandler) BlockUser(c *gin.Context) {
	result, err := h.service.Block(c.Request.Context(), middleware.GetUserID(c), c.Param("userId"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.MessageResponse(c, "chat.blocked", result)
}

// UnblockUser handles DELETE /users/:userId/block
// @Summary Remove a block
// @Tags block
// @Produce json
// @Param userId path string true "User to unblock"
// @Success 200 {object} common.APIResponse
// @Router /users/{userId}/block [delete]
func (h *BlockHandler) UnblockUser(c *gin.Context) {
	if err := h.service.Unblock(c.Request.Context(), middleware.GetUserID(c), c.Param("userId")); err != nil {
		common.HandleError(c, err)
		return
	}
	common.MessageResponse(c, "chat.unblocked", nil)
}

// ListBlocks handles GET /users/me/blocks
// @Summary Users blocked by the caller
// @Tags block
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.BlockResponse}
// @Router /users/me/blocks [get]
func (h *BlockHandler) ListBlocks(c *gin.Context) {
	blocks, err := h.service.ListBlocks(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessResponse(c, blocks, nil)
}
