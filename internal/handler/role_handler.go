package handler

import (
	"net/http"

	"alumni_network/internal/middleware"
	"alumni_network/internal/service"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	svc *service.RoleService
}

type CreateRoleReq struct {
	Name        string   `json:"name" binding:"required,max=80"`
	Permissions []string `json:"permissions"`
}

type AssignRoleReq struct {
	RoleID uint64 `json:"role_id" binding:"required"`
	UserID uint64 `json:"user_id" binding:"required"`
}

type RevokeRoleReq struct {
	UserID uint64 `json:"user_id" binding:"required"`
}

func NewRoleHandler(svc *service.RoleService) *RoleHandler {
	return &RoleHandler{svc: svc}
}

func (h *RoleHandler) List(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	roles, err := h.svc.ListRoles(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (h *RoleHandler) Create(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CreateRoleReq
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.svc.CreateRole(c.Request.Context(), id, req.Name, req.Permissions, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"role": role})
}

func (h *RoleHandler) Assign(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AssignRoleReq
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.svc.AssignRole(c.Request.Context(), id, req.RoleID, req.UserID, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assignment": a})
}

// Revoke 改角色需要先撤销再分配
func (h *RoleHandler) Revoke(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req RevokeRoleReq
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.RevokeRole(c.Request.Context(), id, req.UserID, middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	replyOK(c)
}
