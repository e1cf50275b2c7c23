package handlers

import (
	"github.com/gin-gonic/gin"

	"friendsd/utils"
)

// ProvisionUser is called by the identity service right after it creates a
// user. Repeating the call is harmless.
func (h *FriendHandler) ProvisionUser(c *gin.Context) {
	userID := c.Param("user_id")

	if err := h.Service.EnsureProvisioned(c.Request.Context(), userID); err != nil {
		respondError(c, "provision user", err)
		return
	}

	utils.Success(c, gin.H{"user_id": userID})
}
