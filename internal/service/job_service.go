package service

import (
	"context"
	"strings"
	"time"

	"alumni_network/internal/apperr"
	"alumni_network/internal/model"
	"alumni_network/internal/permission"
	"alumni_network/internal/repository/mysql"

	"gorm.io/gorm"
)

const jobListLimit = 50

var ErrJobNotFound = apperr.NotFound("job not found")

type JobService struct {
	repo  *mysql.JobRepository
	authz *AuthzService
	now   func() time.Time
}

func NewJobService(db *gorm.DB, authz *AuthzService) *JobService {
	return &JobService{repo: &mysql.JobRepository{DB: db}, authz: authz, now: time.Now}
}

type JobInput struct {
	Company     string `json:"company" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Location    string `json:"location"`
	Link        string `json:"link" binding:"omitempty,url"`
	Description string `json:"description"`
}

// CreateSharedJob 新建的职位需要管理员审核后才公开
func (s *JobService) CreateSharedJob(ctx context.Context, communityID, actorID uint64, in JobInput) (*model.SharedJob, error) {
	if err := s.authz.RequirePermission(ctx, actorID, communityID, permission.ManageSharedJobs); err != nil {
		return nil, err
	}
	job := &model.SharedJob{
		CommunityID: communityID,
		PostedBy:    actorID,
		Company:     strings.TrimSpace(in.Company),
		Title:       strings.TrimSpace(in.Title),
		Location:    strings.TrimSpace(in.Location),
		Link:        strings.TrimSpace(in.Link),
		Description: strings.TrimSpace(in.Description),
		Status:      model.ReviewPending,
	}
	var missing []string
	if job.Company == "" {
		missing = append(missing, "company")
	}
	if job.Title == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("company and title are required", missing...)
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *JobService) ListCommunityJobs(ctx context.Context, communityID uint64) ([]model.SharedJob, error) {
	return s.repo.List(ctx, communityID, model.ReviewApproved, jobListLimit)
}

func (s *JobService) ListApprovedJobs(ctx context.Context) ([]model.SharedJob, error) {
	return s.repo.List(ctx, 0, model.ReviewApproved, jobListLimit)
}

// GetApprovedJob 未审核通过的职位对外不可见
func (s *JobService) GetApprovedJob(ctx context.Context, id uint64) (*model.SharedJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrJobNotFound)
	}
	if job.Status != model.ReviewApproved {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (s *JobService) ListPendingJobs(ctx context.Context) ([]model.SharedJob, error) {
	return s.repo.List(ctx, 0, model.ReviewPending, jobListLimit)
}

func (s *JobService) ApproveJob(ctx context.Context, id, adminID uint64) (*model.SharedJob, error) {
	return s.review(ctx, id, adminID, model.ReviewApproved)
}

func (s *JobService) RejectJob(ctx context.Context, id, adminID uint64) (*model.SharedJob, error) {
	return s.review(ctx, id, adminID, model.ReviewRejected)
}

func (s *JobService) review(ctx context.Context, id, adminID uint64, status model.ReviewStatus) (*model.SharedJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrJobNotFound)
	}
	if job.Status == status {
		return job, nil
	}
	if job.Status != model.ReviewPending {
		return nil, apperr.Conflict("job has already been reviewed")
	}
	n, err := s.repo.Review(ctx, id, adminID, status, s.now())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.Conflict("job has already been reviewed")
	}
	return s.repo.FindByID(ctx, id)
}
