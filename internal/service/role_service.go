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

type RoleService struct {
	roleRepo   *mysql.RoleRepository
	memberRepo *mysql.MembershipRepository
	community  *mysql.CommunityRepository
	authz      *AuthzService
}

func NewRoleService(db *gorm.DB, authz *AuthzService) *RoleService {
	return &RoleService{
		roleRepo:   &mysql.RoleRepository{DB: db},
		memberRepo: &mysql.MembershipRepository{DB: db},
		community:  &mysql.CommunityRepository{DB: db},
		authz:      authz,
	}
}

// CreateRole 权限 key 必须在目录里
func (s *RoleService) CreateRole(ctx context.Context, communityID uint64, name string, keys []string, actorID uint64) (*model.CommunityRole, error) {
	if err := s.authz.RequirePermission(ctx, actorID, communityID, permission.ManageRoles); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("role name required", "name")
	}
	_, err := s.roleRepo.FindByName(ctx, communityID, name)
	if err == nil {
		return nil, apperr.ErrDuplicateRole
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	seen := make(map[string]struct{}, len(keys))
	unique := make([]string, 0, len(keys))
	for _, k := range keys {
		if !permission.IsKnown(k) {
			return nil, apperr.Validation("unknown permission: "+k, "permissions")
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}

	role := &model.CommunityRole{CommunityID: communityID, Name: name}
	if err = s.roleRepo.Create(ctx, role, unique); err != nil {
		if isDuplicate(err) {
			return nil, apperr.ErrDuplicateRole
		}
		return nil, err
	}
	return role, nil
}

func (s *RoleService) ListRoles(ctx context.Context, communityID uint64) ([]model.CommunityRole, error) {
	if _, err := s.community.FindByID(ctx, communityID); err != nil {
		return nil, notFound(err, apperr.ErrCommunityNotFound)
	}
	return s.roleRepo.ListByCommunity(ctx, communityID)
}

// AssignRole 已持有角色时返回 Conflict，改角色要先 RevokeRole
func (s *RoleService) AssignRole(ctx context.Context, communityID, roleID, userID, actorID uint64) (*model.RoleAssignment, error) {
	if err := s.authz.RequirePermission(ctx, actorID, communityID, permission.ManageRoles); err != nil {
		return nil, err
	}
	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil || role.CommunityID != communityID {
		return nil, apperr.Validation("role does not belong to this community", "role_id")
	}
	ok, err := s.memberRepo.IsMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotMember
	}
	created, err := s.roleRepo.AssignWithEvent(ctx, communityID, roleID, userID)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, apperr.ErrAlreadyAssigned
	}
	return s.roleRepo.FindAssignment(ctx, communityID, userID)
}

// RevokeRole 不允许撤掉社区最后一个 President
func (s *RoleService) RevokeRole(ctx context.Context, communityID, userID, actorID uint64) error {
	if err := s.authz.RequirePermission(ctx, actorID, communityID, permission.ManageRoles); err != nil {
		return err
	}
	ra, err := s.roleRepo.FindAssignment(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if ra == nil {
		return apperr.NotFound("role assignment not found")
	}
	role, err := s.roleRepo.FindByID(ctx, ra.RoleID)
	if err != nil {
		return err
	}
	if role.Name == permission.OwnerRoleName {
		n, err := s.roleRepo.CountHolders(ctx, role.ID)
		if err != nil {
			return err
		}
		if n <= 1 {
			return apperr.Conflict("cannot revoke the last President")
		}
	}
	_, err = s.roleRepo.DeleteAssignment(ctx, communityID, userID)
	return err
}
