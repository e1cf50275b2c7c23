package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"friendsd/config"
	"friendsd/middleware"
)

// NewRouter wires every route. metricsHandler may be nil.
func NewRouter(cfg *config.Config, h *FriendHandler, metricsHandler http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.LoggingMiddleware(), middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	friends := r.Group("/api/friends")
	friends.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		friends.GET("", h.GetFriends)
		friends.GET("/requests", h.GetFriendRequests)
		friends.GET("/of/:user_id", h.GetFriendsOf)
		friends.GET("/status/:user_id", h.GetStatus)
		friends.POST("/request/:user_id", h.SendFriendRequest)
		friends.POST("/accept/:user_id", h.AcceptFriendRequest)
		friends.POST("/decline/:user_id", h.DeclineFriendRequest)
		friends.POST("/cancel/:user_id", h.CancelFriendRequest)
		friends.DELETE("/:user_id", h.DeleteFriend)
	}

	blocks := r.Group("/api/blocks")
	blocks.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		blocks.GET("", h.GetBlocks)
		blocks.POST("/:user_id", h.BlockUser)
		blocks.DELETE("/:user_id", h.UnblockUser)
	}

	internal := r.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.InternalToken))
	{
		internal.POST("/users/:user_id/provision", h.ProvisionUser)
	}

	return r
}
