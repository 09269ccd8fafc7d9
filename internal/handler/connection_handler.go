package handler

import (
	"net/http"

	"alumni_network/internal/middleware"
	"alumni_network/internal/service"

	"github.com/gin-gonic/gin"
)

type ConnectionHandler struct {
	svc *service.ConnectionService
}

func NewConnectionHandler(svc *service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{svc: svc}
}

type ContactReq struct {
	ToUserID uint64 `json:"to_user_id" binding:"required"`
}

// Send 发起好友请求；重复发送返回 200 和原请求
func (h *ConnectionHandler) Send(c *gin.Context) {
	var req ContactReq
	if !bindJSON(c, &req) {
		return
	}
	r, created, err := h.svc.SendRequest(c.Request.Context(), middleware.UserID(c), req.ToUserID)
	if err != nil {
		fail(c, err)
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	c.JSON(code, gin.H{"request": r, "changed": created})
}

// Incoming 收到的好友请求
func (h *ConnectionHandler) Incoming(c *gin.Context) {
	rows, next, err := h.svc.Incoming(c.Request.Context(), middleware.UserID(c), queryUint(c, "cursor"), queryInt(c, "limit", 20))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": rows, "next_cursor": next})
}

func (h *ConnectionHandler) Accept(c *gin.Context) {
	rid, ok := paramID(c, "rid")
	if !ok {
		return
	}
	r, err := h.svc.Accept(c.Request.Context(), rid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": r})
}

func (h *ConnectionHandler) Reject(c *gin.Context) {
	rid, ok := paramID(c, "rid")
	if !ok {
		return
	}
	r, err := h.svc.Reject(c.Request.Context(), rid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": r})
}

// List 我的好友
func (h *ConnectionHandler) List(c *gin.Context) {
	rows, next, err := h.svc.ListConnections(c.Request.Context(), middleware.UserID(c), queryUint(c, "cursor"), queryInt(c, "limit", 20))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": rows, "next_cursor": next})
}

// Relation 当前用户和 user_id 是否是好友
func (h *ConnectionHandler) Relation(c *gin.Context) {
	ok, err := h.svc.AreConnected(c.Request.Context(), middleware.UserID(c), queryUint(c, "user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": ok})
}
