package handler

import (
	"net/http"
	"strconv"
	"time"

	"alumni_network/internal/apperr"
	"alumni_network/internal/middleware"
	"alumni_network/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	svc *service.PostService
}

type CreatePostReq struct {
	Body string `json:"body" binding:"required"`
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CreatePostReq
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.svc.CreatePost(c.Request.Context(), middleware.UserID(c), id, req.Body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// ListByCommunity 带 last_id 时走游标分页，游标为上一页返回的 next_id/next_ts
func (h *PostHandler) ListByCommunity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	size := queryInt(c, "size", 20)

	if lastIDStr := c.Query("last_id"); lastIDStr != "" {
		lastID, err := strconv.ParseUint(lastIDStr, 10, 64)
		if err != nil {
			fail(c, apperr.Validation("invalid cursor", "last_id"))
			return
		}
		lastTS, err := time.Parse(time.RFC3339Nano, c.Query("last_ts"))
		if err != nil {
			fail(c, apperr.Validation("invalid cursor", "last_ts"))
			return
		}
		list, nextID, nextTS, err := h.svc.ListByCommunityCursor(c.Request.Context(), id, lastID, lastTS, size)
		if err != nil {
			fail(c, err)
			return
		}
		resp := gin.H{"posts": list}
		if nextID != 0 {
			resp["next_id"] = nextID
			resp["next_ts"] = nextTS.Format(time.RFC3339Nano)
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	list, err := h.svc.ListByCommunity(c.Request.Context(), id, queryInt(c, "page", 1), size)
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"posts": list}
	if n := len(list); n > 0 {
		resp["next_id"] = list[n-1].ID
		resp["next_ts"] = list[n-1].CreatedAt.Format(time.RFC3339Nano)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), middleware.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	replyOK(c)
}
