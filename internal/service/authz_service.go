package service

import (
	"context"

	"alumni_network/internal/apperr"
	"alumni_network/internal/repository/mysql"

	"gorm.io/gorm"
)

// AuthzService 权限判断只读 role_permissions，不读权限目录
type AuthzService struct {
	roles *mysql.RoleRepository
}

func NewAuthzService(db *gorm.DB) *AuthzService {
	return &AuthzService{roles: &mysql.RoleRepository{DB: db}}
}

// HasPermission 没有角色绑定的用户一律 false
func (s *AuthzService) HasPermission(ctx context.Context, userID, communityID uint64, key string) (bool, error) {
	if userID == 0 || communityID == 0 {
		return false, nil
	}
	return s.roles.HasPermission(ctx, userID, communityID, key)
}

// RequirePermission 未登录 -> Unauthorized，缺权限 -> Forbidden
func (s *AuthzService) RequirePermission(ctx context.Context, userID, communityID uint64, key string) error {
	if userID == 0 {
		return apperr.ErrUnauthorized
	}
	ok, err := s.HasPermission(ctx, userID, communityID, key)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrForbidden
	}
	return nil
}
