package handler

import (
	"net/http"

	"alumni_network/internal/middleware"
	"alumni_network/internal/model"
	"alumni_network/internal/pkg"
	"alumni_network/internal/service"

	"github.com/gin-gonic/gin"
)

type SponsorHandler struct {
	svc *service.SponsorService
}

type SponsorReq struct {
	Tier model.SponsorTier `json:"tier" binding:"omitempty,oneof=free priority"`
}

func NewSponsorHandler(svc *service.SponsorService) *SponsorHandler {
	return &SponsorHandler{svc: svc}
}

func (h *SponsorHandler) Request(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}
	var req SponsorReq
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	sr, err := h.svc.RequestSponsor(c.Request.Context(), id, postID, middleware.UserID(c), req.Tier)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sponsor_request": sr})
}

// Payment 只校验卡号格式，不会真正扣款
func (h *SponsorHandler) Payment(c *gin.Context) {
	rid, ok := paramID(c, "rid")
	if !ok {
		return
	}
	var req pkg.PaymentFields
	if !bindJSON(c, &req) {
		return
	}
	sr, err := h.svc.SubmitPayment(c.Request.Context(), rid, middleware.UserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sponsor_request": sr})
}
