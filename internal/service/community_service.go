package service

import (
	"context"
	"errors"
	"strings"

	"alumni_network/internal/apperr"
	"alumni_network/internal/model"
	"alumni_network/internal/permission"
	"alumni_network/internal/repository/mysql"

	"gorm.io/gorm"
)

const viewSectionLimit = 25

type CommunityService struct {
	repo       *mysql.CommunityRepository
	memberRepo *mysql.MembershipRepository
	roleRepo   *mysql.RoleRepository
	postRepo   *mysql.PostRepository
	posRepo    *mysql.PositionRepository
	jobRepo    *mysql.JobRepository
	authz      *AuthzService
}

func NewCommunityService(db *gorm.DB, authz *AuthzService) *CommunityService {
	return &CommunityService{
		repo:       &mysql.CommunityRepository{DB: db},
		memberRepo: &mysql.MembershipRepository{DB: db},
		roleRepo:   &mysql.RoleRepository{DB: db},
		postRepo:   &mysql.PostRepository{DB: db},
		posRepo:    &mysql.PositionRepository{DB: db},
		jobRepo:    &mysql.JobRepository{DB: db},
		authz:      authz,
	}
}

// CommunityView 社区详情页
type CommunityView struct {
	Community *model.Community          `json:"community"`
	Posts     []model.CommunityPost     `json:"posts"`
	Positions []model.CommunityPosition `json:"positions"`
	Jobs      []model.SharedJob         `json:"shared_jobs"`
	IsMember  bool                      `json:"is_member"`
}

// CreateCommunity 创建者自动成为 President
func (s *CommunityService) CreateCommunity(ctx context.Context, creatorID uint64, name, desc string, mode model.JoinMode) (*model.Community, error) {
	if creatorID == 0 {
		return nil, apperr.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("community name required", "name")
	}
	if mode == "" {
		mode = model.JoinOpen
	}
	if mode != model.JoinOpen && mode != model.JoinRequest {
		return nil, apperr.Validation("join mode must be open or request", "join_mode")
	}

	_, err := s.repo.FindByName(ctx, name)
	if err == nil {
		return nil, apperr.ErrDuplicateName
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	community := &model.Community{
		Name:                 name,
		Description:          strings.TrimSpace(desc),
		OwnerUserID:          creatorID,
		JoinRequiresApproval: mode == model.JoinRequest,
	}
	if err = s.repo.Create(ctx, community); err != nil {
		if isDuplicate(err) {
			return nil, apperr.ErrDuplicateName
		}
		return nil, err
	}
	return community, nil
}

// EnsureOwnerSetup 可重复执行
func (s *CommunityService) EnsureOwnerSetup(ctx context.Context, communityID, userID uint64) error {
	if _, err := s.GetCommunity(ctx, communityID); err != nil {
		return err
	}
	return s.repo.EnsureOwnerSetup(ctx, communityID, userID)
}

func (s *CommunityService) GetCommunity(ctx context.Context, id uint64) (*model.Community, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperr.ErrCommunityNotFound)
	}
	return c, nil
}

func (s *CommunityService) ListCommunities(ctx context.Context, page, size int) ([]model.Community, error) {
	offset, limit := pageOf(page, size, 20, 50)
	return s.repo.List(ctx, offset, limit)
}

func (s *CommunityService) ViewCommunity(ctx context.Context, id, viewerID uint64) (*CommunityView, error) {
	c, err := s.GetCommunity(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &CommunityView{Community: c}
	if view.Posts, err = s.postRepo.ListByCommunity(ctx, id, 0, viewSectionLimit); err != nil {
		return nil, err
	}
	if view.Positions, err = s.posRepo.ListByCommunity(ctx, id, viewSectionLimit); err != nil {
		return nil, err
	}
	if view.Jobs, err = s.jobRepo.List(ctx, id, model.ReviewApproved, viewSectionLimit); err != nil {
		return nil, err
	}
	if viewerID != 0 {
		if view.IsMember, err = s.memberRepo.IsMember(ctx, id, viewerID); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// JoinCommunity 返回 (状态, 是否本来就是成员)
func (s *CommunityService) JoinCommunity(ctx context.Context, communityID, userID uint64) (model.MembershipStatus, bool, error) {
	if userID == 0 {
		return "", false, apperr.ErrUnauthorized
	}
	c, err := s.GetCommunity(ctx, communityID)
	if err != nil {
		return "", false, err
	}
	existing, err := s.memberRepo.Find(ctx, communityID, userID)
	if err != nil {
		return "", false, err
	}
	if existing != nil && existing.Status == model.MembershipApproved {
		return existing.Status, true, nil
	}

	status := model.MembershipApproved
	if c.JoinRequiresApproval {
		status = model.MembershipPending
	}
	m, err := s.memberRepo.Upsert(ctx, communityID, userID, status)
	if err != nil {
		return "", false, err
	}
	return m.Status, false, nil
}

// ApproveMembership 对已通过的成员重复审批是 no-op
func (s *CommunityService) ApproveMembership(ctx context.Context, communityID, membershipID, actorID uint64) (*model.CommunityMembership, error) {
	if err := s.authz.RequirePermission(ctx, actorID, communityID, permission.ManageMembers); err != nil {
		return nil, err
	}
	m, err := s.memberRepo.FindByID(ctx, membershipID)
	if err != nil {
		return nil, notFound(err, apperr.ErrMembershipNotFound)
	}
	if m.CommunityID != communityID {
		return nil, apperr.ErrMembershipNotFound
	}
	if _, err = s.memberRepo.Approve(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CommunityService) ListPendingMembers(ctx context.Context, communityID, actorID uint64) ([]model.CommunityMembership, error) {
	if err := s.authz.RequirePermission(ctx, actorID, communityID, permission.ManageMembers); err != nil {
		return nil, err
	}
	return s.memberRepo.ListByStatus(ctx, communityID, model.MembershipPending)
}

// LeaveCommunity 同时解除角色；President 不能直接退出
func (s *CommunityService) LeaveCommunity(ctx context.Context, communityID, userID uint64) error {
	if userID == 0 {
		return apperr.ErrUnauthorized
	}
	m, err := s.memberRepo.Find(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return apperr.ErrMembershipNotFound
	}
	ra, err := s.roleRepo.FindAssignment(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if ra != nil {
		role, err := s.roleRepo.FindByID(ctx, ra.RoleID)
		if err != nil {
			return err
		}
		if role.Name == permission.OwnerRoleName {
			return apperr.Conflict("the President must hand over the role before leaving")
		}
	}
	return s.memberRepo.LeaveWithRole(ctx, communityID, userID)
}

func (s *CommunityService) IsMember(ctx context.Context, communityID, userID uint64) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return s.memberRepo.IsMember(ctx, communityID, userID)
}
