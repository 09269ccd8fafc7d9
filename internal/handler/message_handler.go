package handler

import (
	"net/http"

	"alumni_network/internal/middleware"
	"alumni_network/internal/service"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	svc *service.MessageService
}

func NewMessageHandler(svc *service.MessageService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

type SendMessageReq struct {
	Body string `json:"body" binding:"required"`
}

func (h *MessageHandler) SendRequest(c *gin.Context) {
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

func (h *MessageHandler) Requests(c *gin.Context) {
	rows, next, err := h.svc.Incoming(c.Request.Context(), middleware.UserID(c), queryUint(c, "cursor"), queryInt(c, "limit", 20))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": rows, "next_cursor": next})
}

// AcceptRequest 接受后返回会话
func (h *MessageHandler) AcceptRequest(c *gin.Context) {
	rid, ok := paramID(c, "rid")
	if !ok {
		return
	}
	t, err := h.svc.AcceptRequest(c.Request.Context(), rid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": t})
}

func (h *MessageHandler) RejectRequest(c *gin.Context) {
	rid, ok := paramID(c, "rid")
	if !ok {
		return
	}
	r, err := h.svc.RejectRequest(c.Request.Context(), rid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": r})
}

func (h *MessageHandler) Inbox(c *gin.Context) {
	list, err := h.svc.Inbox(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": list})
}

// Thread after 之后的消息，正序
func (h *MessageHandler) Thread(c *gin.Context) {
	tid, ok := paramID(c, "tid")
	if !ok {
		return
	}
	list, err := h.svc.Messages(c.Request.Context(), tid, middleware.UserID(c), queryUint(c, "after"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

func (h *MessageHandler) Send(c *gin.Context) {
	tid, ok := paramID(c, "tid")
	if !ok {
		return
	}
	var req SendMessageReq
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.Send(c.Request.Context(), tid, middleware.UserID(c), req.Body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": m})
}
