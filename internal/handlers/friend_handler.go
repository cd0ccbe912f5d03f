package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mroshb/friendgraph/internal/middleware"
	"github.com/mroshb/friendgraph/pkg/errors"
	"github.com/mroshb/friendgraph/pkg/response"
)

type respondRequest struct {
	Action string `json:"action"`
}

// CreateFriendRequest handles POST /friends/:targetId
func (h *HandlerManager) CreateFriendRequest(c *gin.Context) {
	callerID, _ := middleware.GetUserID(c)

	targetID, err := strconv.ParseUint(c.Param("targetId"), 10, 64)
	if err != nil || targetID == 0 || uint64(uint(targetID)) != targetID {
		response.Error(c, errors.New(errors.ErrCodeInvalidTarget, "target id must be a positive integer"))
		return
	}

	req, err := h.FriendSvc.CreateFriendRequest(c.Request.Context(), callerID, uint(targetID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, req)
}

// GetFriends handles GET /friends
func (h *HandlerManager) GetFriends(c *gin.Context) {
	callerID, _ := middleware.GetUserID(c)

	friends, err := h.FriendSvc.GetFriends(c.Request.Context(), callerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, friends)
}

// GetPendingFriendRequests handles GET /friends/requests
func (h *HandlerManager) GetPendingFriendRequests(c *gin.Context) {
	callerID, _ := middleware.GetUserID(c)

	pending, err := h.FriendSvc.GetPendingFriendRequests(c.Request.Context(), callerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, pending)
}

// RespondToFriendRequest handles PATCH /friends/:id
func (h *HandlerManager) RespondToFriendRequest(c *gin.Context) {
	callerID, _ := middleware.GetUserID(c)

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.New(errors.ErrCodeInvalidAction, "action must be 'accept' or 'reject'"))
		return
	}

	updated, err := h.FriendSvc.RespondToFriendRequest(c.Request.Context(), callerID, c.Param("id"), req.Action)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, updated)
}
