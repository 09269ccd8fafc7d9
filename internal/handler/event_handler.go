package handler

import (
	"net/http"

	"alumni_network/internal/middleware"
	"alumni_network/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	svc *service.EventService
}

func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) Create(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.EventInput
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.svc.CreateEvent(c.Request.Context(), id, req, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": e})
}

func (h *EventHandler) List(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListEvents(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": list})
}

func (h *EventHandler) Get(c *gin.Context) {
	eid, ok := paramID(c, "eid")
	if !ok {
		return
	}
	view, err := h.svc.GetEvent(c.Request.Context(), eid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Register 重复报名返回 200 和原记录
func (h *EventHandler) Register(c *gin.Context) {
	eid, ok := paramID(c, "eid")
	if !ok {
		return
	}
	reg, created, err := h.svc.RegisterForEvent(c.Request.Context(), eid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	c.JSON(code, gin.H{"registration": reg, "already": !created})
}

func (h *EventHandler) Cancel(c *gin.Context) {
	eid, ok := paramID(c, "eid")
	if !ok {
		return
	}
	e, err := h.svc.CancelEvent(c.Request.Context(), eid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": e})
}

func (h *EventHandler) Registrations(c *gin.Context) {
	eid, ok := paramID(c, "eid")
	if !ok {
		return
	}
	list, err := h.svc.ListRegistrations(c.Request.Context(), eid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": list})
}

func (h *EventHandler) Reminders(c *gin.Context) {
	eid, ok := paramID(c, "eid")
	if !ok {
		return
	}
	n, err := h.svc.SendReminders(c.Request.Context(), eid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": n})
}

func (h *EventHandler) CancelRegistration(c *gin.Context) {
	rid, ok := paramID(c, "rid")
	if !ok {
		return
	}
	reg, err := h.svc.CancelRegistration(c.Request.Context(), rid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registration": reg})
}

func (h *EventHandler) CheckIn(c *gin.Context) {
	rid, ok := paramID(c, "rid")
	if !ok {
		return
	}
	reg, err := h.svc.CheckIn(c.Request.Context(), rid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registration": reg})
}
