package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"friendsd/friends"
	"friendsd/logger"
	"friendsd/middleware"
	"friendsd/models"
	"friendsd/utils"
)

type FriendHandler struct {
	Service *friends.Service
}

func NewFriendHandler(service *friends.Service) *FriendHandler {
	return &FriendHandler{Service: service}
}

type FriendRequestBody struct {
	Message string `json:"message" binding:"max=200"`
}

func (h *FriendHandler) GetFriends(c *gin.Context) {
	userID := middleware.GetUserID(c)
	shuffle, _ := strconv.ParseBool(c.DefaultQuery("shuffle", "false"))

	list, err := h.Service.FriendList(c.Request.Context(), userID, shuffle)
	if err != nil {
		respondError(c, "list friends", err)
		return
	}

	utils.Success(c, list)
}

// GetFriendsOf lists another user's friends.
func (h *FriendHandler) GetFriendsOf(c *gin.Context) {
	targetID := c.Param("user_id")
	shuffle, _ := strconv.ParseBool(c.DefaultQuery("shuffle", "false"))

	list, err := h.Service.FriendListOf(c.Request.Context(), targetID, shuffle)
	if err != nil {
		respondError(c, "list friends", err)
		return
	}

	utils.Success(c, list)
}

// GetStatus reports the caller's relationship to :user_id.
func (h *FriendHandler) GetStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	targetID := c.Param("user_id")

	status, err := h.Service.Status(c.Request.Context(), userID, targetID)
	if err != nil {
		respondError(c, "get relationship status", err)
		return
	}

	utils.Success(c, status)
}

func (h *FriendHandler) GetFriendRequests(c *gin.Context) {
	userID := middleware.GetUserID(c)

	pending, err := h.Service.PendingRequests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "list friend requests", err)
		return
	}

	utils.Success(c, pending)
}

// SendFriendRequest asks :user_id for friendship. When :user_id had already
// asked the caller, the pair becomes friends and accepted is true.
func (h *FriendHandler) SendFriendRequest(c *gin.Context) {
	userID := middleware.GetUserID(c)
	targetID := c.Param("user_id")

	var body FriendRequestBody
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			utils.BadRequest(c, err.Error())
			return
		}
	}

	outcome, err := h.Service.RequestFriendship(c.Request.Context(), userID, targetID, body.Message)
	if err != nil {
		respondError(c, "send friend request", err)
		return
	}

	if outcome.Accepted {
		utils.Success(c, outcome)
		return
	}
	utils.Created(c, outcome)
}

func (h *FriendHandler) AcceptFriendRequest(c *gin.Context) {
	userID := middleware.GetUserID(c)
	requesterID := c.Param("user_id")

	req, err := h.Service.AcceptRequest(c.Request.Context(), requesterID, userID)
	if err != nil {
		respondError(c, "accept friend request", err)
		return
	}

	utils.Success(c, req)
}

func (h *FriendHandler) DeclineFriendRequest(c *gin.Context) {
	userID := middleware.GetUserID(c)
	requesterID := c.Param("user_id")

	req, err := h.Service.DeclineRequest(c.Request.Context(), requesterID, userID)
	if err != nil {
		respondError(c, "decline friend request", err)
		return
	}

	utils.Success(c, req)
}

func (h *FriendHandler) CancelFriendRequest(c *gin.Context) {
	userID := middleware.GetUserID(c)
	targetID := c.Param("user_id")

	req, err := h.Service.CancelRequest(c.Request.Context(), userID, targetID)
	if err != nil {
		respondError(c, "cancel friend request", err)
		return
	}

	utils.Success(c, req)
}

func (h *FriendHandler) DeleteFriend(c *gin.Context) {
	userID := middleware.GetUserID(c)
	friendID := c.Param("user_id")

	if err := h.Service.Unfriend(c.Request.Context(), userID, friendID); err != nil {
		respondError(c, "delete friend", err)
		return
	}

	utils.Success(c, nil)
}

// respondError maps service outcomes onto HTTP statuses.
func respondError(c *gin.Context, action string, err error) {
	entry := logger.Log.WithFields(logrus.Fields{
		"action":  action,
		"user_id": middleware.GetUserID(c),
		"target":  c.Param("user_id"),
	})

	switch {
	case errors.Is(err, models.ErrSelfReference):
		entry.Warn(err.Error())
		utils.BadRequest(c, err.Error())
	case errors.Is(err, models.ErrUnknownUser):
		entry.Warn(err.Error())
		utils.NotFound(c, models.ErrUnknownUser.Error())
	case errors.Is(err, models.ErrNotFound):
		entry.Warn(err.Error())
		utils.NotFound(c, "friend request not found")
	case errors.Is(err, models.ErrDuplicateRequest), errors.Is(err, models.ErrAlreadyFriends):
		entry.Warn(err.Error())
		utils.Conflict(c, err.Error())
	default:
		entry.WithError(err).Error("request failed")
		utils.InternalError(c, "failed to "+action)
	}
}
