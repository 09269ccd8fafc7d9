package handler

import (
	"context"
	"net/http"

	"alumni_network/internal/middleware"
	"alumni_network/internal/model"
	"alumni_network/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理后台：登录、配置、报表和审核
type AdminHandler struct {
	admins   *service.AdminService
	jobs     *service.JobService
	sponsors *service.SponsorService
}

type AdminLoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SuspendReq struct {
	Days int `json:"days" binding:"required,min=1,max=365"`
}

type AnnouncementReq struct {
	Title    string `json:"title" binding:"required"`
	Body     string `json:"body" binding:"required"`
	IsPinned bool   `json:"is_pinned"`
}

func NewAdminHandler(admins *service.AdminService, jobs *service.JobService, sponsors *service.SponsorService) *AdminHandler {
	return &AdminHandler{admins: admins, jobs: jobs, sponsors: sponsors}
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req AdminLoginReq
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.admins.AdminLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *AdminHandler) Logout(c *gin.Context) {
	if err := h.admins.AdminLogout(c.Request.Context(), middleware.AdminID(c)); err != nil {
		fail(c, err)
		return
	}
	replyOK(c)
}

func (h *AdminHandler) Settings(c *gin.Context) {
	cfg, err := h.admins.Settings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": cfg})
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req service.SettingsInput
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.admins.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": cfg})
}

func (h *AdminHandler) Report(c *gin.Context) {
	r, err := h.admins.Report(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *AdminHandler) PendingJobs(c *gin.Context) {
	list, err := h.jobs.ListPendingJobs(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": list})
}

func (h *AdminHandler) PendingSponsorships(c *gin.Context) {
	list, err := h.sponsors.ListPendingSponsors(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sponsorships": list})
}

func (h *AdminHandler) ApproveJob(c *gin.Context) {
	h.reviewJob(c, h.jobs.ApproveJob)
}

func (h *AdminHandler) RejectJob(c *gin.Context) {
	h.reviewJob(c, h.jobs.RejectJob)
}

func (h *AdminHandler) reviewJob(c *gin.Context, fn func(ctx context.Context, id, adminID uint64) (*model.SharedJob, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	job, err := fn(c.Request.Context(), id, middleware.AdminID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

func (h *AdminHandler) ApproveSponsorship(c *gin.Context) {
	h.reviewSponsor(c, h.sponsors.ApproveSponsor)
}

func (h *AdminHandler) RejectSponsorship(c *gin.Context) {
	h.reviewSponsor(c, h.sponsors.RejectSponsor)
}

func (h *AdminHandler) reviewSponsor(c *gin.Context, fn func(ctx context.Context, id, adminID uint64) (*model.SponsorRequest, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sr, err := fn(c.Request.Context(), id, middleware.AdminID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sponsor_request": sr})
}

func (h *AdminHandler) Ban(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.admins.BanUser(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AdminHandler) Unban(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.admins.UnbanUser(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AdminHandler) Suspend(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req SuspendReq
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.admins.SuspendUser(c.Request.Context(), id, req.Days)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AdminHandler) CreateAnnouncement(c *gin.Context) {
	var req AnnouncementReq
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.admins.CreateAnnouncement(c.Request.Context(), req.Title, req.Body, req.IsPinned)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"announcement": a})
}
