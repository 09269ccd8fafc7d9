package handler

import (
	"net/http"

	"alumni_network/internal/middleware"
	"alumni_network/internal/service"

	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	svc *service.JobService
}

func NewJobHandler(svc *service.JobService) *JobHandler {
	return &JobHandler{svc: svc}
}

func (h *JobHandler) ListCommunity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListCommunityJobs(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shared_jobs": list})
}

func (h *JobHandler) Create(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.JobInput
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.svc.CreateSharedJob(c.Request.Context(), id, middleware.UserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"shared_job": job})
}

// Career 已审核通过的职位
func (h *JobHandler) Career(c *gin.Context) {
	list, err := h.svc.ListApprovedJobs(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": list})
}

func (h *JobHandler) CareerDetail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	job, err := h.svc.GetApprovedJob(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}
