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

const positionListLimit = 50

type PositionService struct {
	posRepo    *mysql.PositionRepository
	roleRepo   *mysql.RoleRepository
	memberRepo *mysql.MembershipRepository
	community  *mysql.CommunityRepository
	authz      *AuthzService
}

func NewPositionService(db *gorm.DB, authz *AuthzService) *PositionService {
	return &PositionService{
		posRepo:    &mysql.PositionRepository{DB: db},
		roleRepo:   &mysql.RoleRepository{DB: db},
		memberRepo: &mysql.MembershipRepository{DB: db},
		community:  &mysql.CommunityRepository{DB: db},
		authz:      authz,
	}
}

type PositionInput struct {
	Title            string  `json:"title" binding:"required,max=140"`
	Description      string  `json:"description"`
	IsRoleAssignment bool    `json:"is_role_assignment"`
	RoleToAssignID   *uint64 `json:"role_to_assign_id"`
}

func (s *PositionService) CreatePosition(ctx context.Context, communityID uint64, in PositionInput, actorID uint64) (*model.CommunityPosition, error) {
	if err := s.authz.RequirePermission(ctx, actorID, communityID, permission.ManagePositions); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("position title required", "title")
	}
	pos := &model.CommunityPosition{
		CommunityID: communityID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      model.PositionOpen,
	}
	if in.IsRoleAssignment {
		if in.RoleToAssignID == nil {
			return nil, apperr.ErrInvalidRole
		}
		role, err := s.roleRepo.FindByID(ctx, *in.RoleToAssignID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err != nil || role.CommunityID != communityID {
			return nil, apperr.ErrInvalidRole
		}
		pos.IsRoleAssignment = true
		pos.RoleToAssignID = in.RoleToAssignID
	}
	if err := s.posRepo.Create(ctx, pos); err != nil {
		return nil, err
	}
	return pos, nil
}

func (s *PositionService) ListPositions(ctx context.Context, communityID uint64) ([]model.CommunityPosition, error) {
	if _, err := s.community.FindByID(ctx, communityID); err != nil {
		return nil, notFound(err, apperr.ErrCommunityNotFound)
	}
	return s.posRepo.ListByCommunity(ctx, communityID, positionListLimit)
}

// ApplyToPosition 同一岗位只能申请一次
func (s *PositionService) ApplyToPosition(ctx context.Context, positionID, userID uint64, note string) (*model.PositionApplication, error) {
	if userID == 0 {
		return nil, apperr.ErrUnauthorized
	}
	pos, err := s.posRepo.FindByID(ctx, positionID)
	if err != nil {
		return nil, notFound(err, apperr.ErrPositionNotFound)
	}
	ok, err := s.memberRepo.IsMember(ctx, pos.CommunityID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotMember
	}
	app := &model.PositionApplication{
		PositionID: positionID,
		UserID:     userID,
		Note:       strings.TrimSpace(note),
		Status:     model.ApplicationPending,
	}
	if err = s.posRepo.CreateApplication(ctx, app); err != nil {
		if isDuplicate(err) {
			return nil, apperr.ErrDuplicateApplication
		}
		return nil, err
	}
	return app, nil
}

func (s *PositionService) ListApplications(ctx context.Context, positionID, actorID uint64) ([]model.PositionApplication, error) {
	pos, err := s.posRepo.FindByID(ctx, positionID)
	if err != nil {
		return nil, notFound(err, apperr.ErrPositionNotFound)
	}
	if err = s.authz.RequirePermission(ctx, actorID, pos.CommunityID, permission.ManagePositions); err != nil {
		return nil, err
	}
	return s.posRepo.ListApplications(ctx, positionID)
}

// AcceptResult granted 表示这次接受新绑定了角色
type AcceptResult struct {
	Application *model.PositionApplication `json:"application"`
	RoleGranted bool                       `json:"role_granted"`
}

// AcceptApplication 用户已有角色时静默跳过分配，申请仍然置为 accepted
func (s *PositionService) AcceptApplication(ctx context.Context, positionID, applicationID, actorID uint64) (*AcceptResult, error) {
	pos, err := s.posRepo.FindByID(ctx, positionID)
	if err != nil {
		return nil, notFound(err, apperr.ErrPositionNotFound)
	}
	if err = s.authz.RequirePermission(ctx, actorID, pos.CommunityID, permission.ManagePositions); err != nil {
		return nil, err
	}
	app, err := s.posRepo.FindApplication(ctx, applicationID)
	if err != nil {
		return nil, notFound(err, apperr.ErrApplicationNotFound)
	}
	if app.PositionID != positionID {
		return nil, apperr.ErrApplicationNotFound
	}
	granted, err := s.posRepo.Accept(ctx, pos, app)
	if err != nil {
		return nil, err
	}
	return &AcceptResult{Application: app, RoleGranted: granted}, nil
}
