package mysql

import (
	"context"
	"errors"

	"alumni_network/internal/model"

	"gorm.io/gorm"
)

type RoleRepository struct {
	DB *gorm.DB
}

// FindOrCreate 按 (community_id, name) 幂等创建角色
func (r *RoleRepository) FindOrCreate(ctx context.Context, communityID uint64, name string) (*model.CommunityRole, error) {
	role := model.CommunityRole{CommunityID: communityID, Name: name}
	if _, err := firstOrCreate(r.DB.WithContext(ctx), &role, map[string]any{"community_id": communityID, "name": name}); err != nil {
		return nil, err
	}
	return &role, nil
}

// Create 新建角色及其权限；名称冲突返回 gorm.ErrDuplicatedKey
func (r *RoleRepository) Create(ctx context.Context, role *model.CommunityRole, keys []string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		sub := &RoleRepository{DB: tx}
		for _, k := range keys {
			if err := sub.GrantPermission(ctx, role.ID, k); err != nil {
				return err
			}
		}
		return tx.Where("role_id = ?", role.ID).Find(&role.Permissions).Error
	})
}

// GrantPermission 权限已存在则跳过
func (r *RoleRepository) GrantPermission(ctx context.Context, roleID uint64, key string) error {
	p := model.RolePermission{RoleID: roleID, Key: key}
	_, err := firstOrCreate(r.DB.WithContext(ctx), &p, map[string]any{"role_id": roleID, "perm_key": key})
	return err
}

func (r *RoleRepository) FindByID(ctx context.Context, id uint64) (*model.CommunityRole, error) {
	var role model.CommunityRole
	err := r.DB.WithContext(ctx).Preload("Permissions").First(&role, id).Error
	return &role, err
}

// FindByName 名称按字节比较
func (r *RoleRepository) FindByName(ctx context.Context, communityID uint64, name string) (*model.CommunityRole, error) {
	var role model.CommunityRole
	err := r.DB.WithContext(ctx).Where("community_id = ? AND name = ?", communityID, name).First(&role).Error
	return &role, err
}

func (r *RoleRepository) ListByCommunity(ctx context.Context, communityID uint64) ([]model.CommunityRole, error) {
	var list []model.CommunityRole
	err := r.DB.WithContext(ctx).Preload("Permissions").
		Where("community_id = ?", communityID).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// Assign 先到先得：(community_id, user_id) 已有绑定时跳过，不覆盖；返回是否新建
func (r *RoleRepository) Assign(ctx context.Context, communityID, roleID, userID uint64) (bool, error) {
	ra := model.RoleAssignment{CommunityID: communityID, RoleID: roleID, UserID: userID}
	return firstOrCreate(r.DB.WithContext(ctx), &ra, map[string]any{"community_id": communityID, "user_id": userID})
}

// FindAssignment 未找到返回 (nil, nil)
func (r *RoleRepository) FindAssignment(ctx context.Context, communityID, userID uint64) (*model.RoleAssignment, error) {
	var ra model.RoleAssignment
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&ra).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ra, nil
}

func (r *RoleRepository) DeleteAssignment(ctx context.Context, communityID, userID uint64) (int64, error) {
	tx := r.DB.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&model.RoleAssignment{})
	return tx.RowsAffected, tx.Error
}

func (r *RoleRepository) CountHolders(ctx context.Context, roleID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.RoleAssignment{}).Where("role_id = ?", roleID).Count(&n).Error
	return n, err
}

// HasPermission 读持久化的权限行，不读目录
func (r *RoleRepository) HasPermission(ctx context.Context, userID, communityID uint64, key string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.RoleAssignment{}).
		Joins("JOIN role_permissions ON role_permissions.role_id = role_assignments.role_id").
		Where("role_assignments.user_id = ? AND role_assignments.community_id = ? AND role_permissions.perm_key = ?",
			userID, communityID, key).
		Count(&n).Error
	return n > 0, err
}

// AssignWithEvent 显式分配角色；已有绑定返回 created=false
func (r *RoleRepository) AssignWithEvent(ctx context.Context, communityID, roleID, userID uint64) (bool, error) {
	var created bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = (&RoleRepository{DB: tx}).Assign(ctx, communityID, roleID, userID)
		if err != nil || !created {
			return err
		}
		return insertOutbox(tx, model.EventRoleAssigned, communityID, userID, map[string]any{"role_id": roleID})
	})
	return created, err
}
