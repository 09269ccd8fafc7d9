package handler

import (
	"net/http"

	"alumni_network/internal/middleware"
	"alumni_network/internal/service"

	"github.com/gin-gonic/gin"
)

type PostLikeHandler struct {
	svc *service.PostLikeService
}

func NewPostLikeHandler(svc *service.PostLikeService) *PostLikeHandler {
	return &PostLikeHandler{svc: svc}
}

func (h *PostLikeHandler) Like(c *gin.Context) {
	pid, ok := paramID(c, "id")
	if !ok {
		return
	}
	changed, err := h.svc.Like(c.Request.Context(), middleware.UserID(c), pid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (h *PostLikeHandler) Unlike(c *gin.Context) {
	pid, ok := paramID(c, "id")
	if !ok {
		return
	}
	changed, err := h.svc.Unlike(c.Request.Context(), middleware.UserID(c), pid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// Likes 点赞数；登录用户额外返回自己是否点过
func (h *PostLikeHandler) Likes(c *gin.Context) {
	pid, ok := paramID(c, "id")
	if !ok {
		return
	}
	cnt, err := h.svc.LikeCount(c.Request.Context(), pid)
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"count": cnt}
	if uid := middleware.UserID(c); uid != 0 {
		liked, err := h.svc.IsLiked(c.Request.Context(), uid, pid)
		if err != nil {
			fail(c, err)
			return
		}
		resp["liked"] = liked
	}
	c.JSON(http.StatusOK, resp)
}
