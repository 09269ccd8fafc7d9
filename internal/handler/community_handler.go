package handler

import (
	"net/http"

	"alumni_network/internal/middleware"
	"alumni_network/internal/model"
	"alumni_network/internal/service"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	svc *service.CommunityService
}

type CommunityCreateReq struct {
	Name        string         `json:"name" binding:"required,max=140"`
	Description string         `json:"description"`
	JoinMode    model.JoinMode `json:"join_mode"`
}

func NewCommunityHandler(svc *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

func (h *CommunityHandler) Create(c *gin.Context) {
	var req CommunityCreateReq
	if !bindJSON(c, &req) {
		return
	}
	if req.JoinMode == "" {
		req.JoinMode = model.JoinOpen
	}
	community, err := h.svc.CreateCommunity(c.Request.Context(), middleware.UserID(c), req.Name, req.Description, req.JoinMode)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"community": community})
}

func (h *CommunityHandler) List(c *gin.Context) {
	list, err := h.svc.ListCommunities(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "size", 20))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"communities": list})
}

// View 游客也能看，登录用户额外返回 is_member
func (h *CommunityHandler) View(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.ViewCommunity(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CommunityHandler) Join(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	status, already, err := h.svc.JoinCommunity(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	code := http.StatusOK
	if !already {
		code = http.StatusCreated
	}
	c.JSON(code, gin.H{"status": status, "already": already})
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.LeaveCommunity(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	replyOK(c)
}

func (h *CommunityHandler) PendingMembers(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListPendingMembers(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}

func (h *CommunityHandler) ApproveMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	mid, ok := paramID(c, "mid")
	if !ok {
		return
	}
	m, err := h.svc.ApproveMembership(c.Request.Context(), id, mid, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": m})
}
