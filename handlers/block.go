package handlers

import (
	"github.com/gin-gonic/gin"

	"friendsd/middleware"
	"friendsd/utils"
)

func (h *FriendHandler) GetBlocks(c *gin.Context) {
	userID := middleware.GetUserID(c)

	list, err := h.Service.BlockList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "list blocks", err)
		return
	}

	utils.Success(c, list)
}

func (h *FriendHandler) BlockUser(c *gin.Context) {
	userID := middleware.GetUserID(c)
	targetID := c.Param("user_id")

	if err := h.Service.Block(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, "block user", err)
		return
	}

	utils.Success(c, nil)
}

func (h *FriendHandler) UnblockUser(c *gin.Context) {
	userID := middleware.GetUserID(c)
	targetID := c.Param("user_id")

	if err := h.Service.Unblock(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, "unblock user", err)
		return
	}

	utils.Success(c, nil)
}
