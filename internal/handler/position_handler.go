package handler

import (
	"net/http"

	"alumni_network/internal/middleware"
	"alumni_network/internal/service"

	"github.com/gin-gonic/gin"
)

type PositionHandler struct {
	svc *service.PositionService
}

type ApplyReq struct {
	Note string `json:"note"`
}

func NewPositionHandler(svc *service.PositionService) *PositionHandler {
	return &PositionHandler{svc: svc}
}

func (h *PositionHandler) List(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListPositions(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": list})
}

func (h *PositionHandler) Create(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.PositionInput
	if !bindJSON(c, &req) {
		return
	}
	pos, err := h.svc.CreatePosition(c.Request.Context(), id, req, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"position": pos})
}

// Apply note 可以为空，请求体也可以省略
func (h *PositionHandler) Apply(c *gin.Context) {
	pid, ok := paramID(c, "pid")
	if !ok {
		return
	}
	var req ApplyReq
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	app, err := h.svc.ApplyToPosition(c.Request.Context(), pid, middleware.UserID(c), req.Note)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"application": app})
}

func (h *PositionHandler) Applications(c *gin.Context) {
	pid, ok := paramID(c, "pid")
	if !ok {
		return
	}
	list, err := h.svc.ListApplications(c.Request.Context(), pid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": list})
}

func (h *PositionHandler) Accept(c *gin.Context) {
	pid, ok := paramID(c, "pid")
	if !ok {
		return
	}
	aid, ok := paramID(c, "aid")
	if !ok {
		return
	}
	res, err := h.svc.AcceptApplication(c.Request.Context(), pid, aid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
