package service

import (
	"context"
	"time"

	"alumni_network/internal/apperr"
	"alumni_network/internal/model"
	"alumni_network/internal/permission"
	"alumni_network/internal/pkg"
	"alumni_network/internal/repository/mysql"

	"gorm.io/gorm"
)

var ErrSponsorNotFound = apperr.NotFound("sponsor request not found")

type SponsorService struct {
	repo     *mysql.SponsorRepository
	postRepo *mysql.PostRepository
	settings *mysql.SettingsRepository
	authz    *AuthzService
	now      func() time.Time
}

func NewSponsorService(db *gorm.DB, authz *AuthzService) *SponsorService {
	return &SponsorService{
		repo:     &mysql.SponsorRepository{DB: db},
		postRepo: &mysql.PostRepository{DB: db},
		settings: &mysql.SettingsRepository{DB: db},
		authz:    authz,
		now:      time.Now,
	}
}

// RequestSponsor free 档位无需付款
func (s *SponsorService) RequestSponsor(ctx context.Context, communityID, postID, actorID uint64, tier model.SponsorTier) (*model.SponsorRequest, error) {
	if err := s.authz.RequirePermission(ctx, actorID, communityID, permission.SponsorPost); err != nil {
		return nil, err
	}
	if tier == "" {
		tier = model.TierFree
	}
	if tier != model.TierFree && tier != model.TierPriority {
		return nil, apperr.Validation("tier must be free or priority", "tier")
	}
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, apperr.ErrPostNotFound)
	}
	if post.CommunityID != communityID {
		return nil, apperr.ErrPostNotFound
	}
	req := &model.SponsorRequest{
		PostID:      postID,
		CommunityID: communityID,
		RequestedBy: actorID,
		Tier:        tier,
		Status:      model.ReviewPending,
		PaidOK:      tier == model.TierFree,
	}
	if err = s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// SubmitPayment 只校验卡号、有效期、CVV 的格式
func (s *SponsorService) SubmitPayment(ctx context.Context, requestID, actorID uint64, card pkg.PaymentFields) (*model.SponsorRequest, error) {
	if actorID == 0 {
		return nil, apperr.ErrUnauthorized
	}
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, ErrSponsorNotFound)
	}
	if req.RequestedBy != actorID {
		return nil, apperr.ErrForbidden
	}
	if req.PaidOK {
		return req, nil
	}
	if bad := card.Invalid(); len(bad) > 0 {
		return nil, apperr.Validation("invalid payment details", bad...)
	}
	if err = s.repo.MarkPaid(ctx, requestID); err != nil {
		return nil, err
	}
	req.PaidOK = true
	return req, nil
}

func (s *SponsorService) ListPendingSponsors(ctx context.Context) ([]model.SponsorRequest, error) {
	return s.repo.ListPending(ctx, 100)
}

// ApproveSponsor 过期时间取当前配置的天数
func (s *SponsorService) ApproveSponsor(ctx context.Context, id, adminID uint64) (*model.SponsorRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrSponsorNotFound)
	}
	if req.Status == model.ReviewApproved {
		return req, nil
	}
	if req.Status != model.ReviewPending {
		return nil, apperr.Conflict("sponsor request has already been reviewed")
	}
	if !req.PaidOK {
		return nil, apperr.Conflict("sponsor request is not paid")
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	n, err := s.repo.Approve(ctx, id, adminID, now, now.AddDate(0, 0, cfg.SponsorshipExpiryDays))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.Conflict("sponsor request has already been reviewed")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *SponsorService) RejectSponsor(ctx context.Context, id, adminID uint64) (*model.SponsorRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrSponsorNotFound)
	}
	if req.Status == model.ReviewRejected {
		return req, nil
	}
	if req.Status != model.ReviewPending {
		return nil, apperr.Conflict("sponsor request has already been reviewed")
	}
	if _, err = s.repo.Reject(ctx, id, adminID, s.now()); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}
