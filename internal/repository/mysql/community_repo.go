package mysql

import (
	"context"

	"alumni_network/internal/model"
	"alumni_network/internal/permission"

	"gorm.io/gorm"
)

type CommunityRepository struct {
	DB *gorm.DB
}

// Create 建社区并在同一事务里完成拥有者初始化，任何一步失败整体回滚
func (r *CommunityRepository) Create(ctx context.Context, c *model.Community) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return ensureOwnerSetup(ctx, tx, c.ID, c.OwnerUserID)
	})
}

// EnsureOwnerSetup 幂等：重复调用不会产生重复行
func (r *CommunityRepository) EnsureOwnerSetup(ctx context.Context, communityID, userID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ensureOwnerSetup(ctx, tx, communityID, userID)
	})
}

// 拥有者角色 -> 默认权限 -> 角色绑定 -> 成员状态 approved
func ensureOwnerSetup(ctx context.Context, tx *gorm.DB, communityID, userID uint64) error {
	roles := &RoleRepository{DB: tx}
	members := &MembershipRepository{DB: tx}

	owner, err := roles.FindOrCreate(ctx, communityID, permission.OwnerRoleName)
	if err != nil {
		return err
	}
	for _, key := range permission.Defaults(permission.OwnerRoleName) {
		if err = roles.GrantPermission(ctx, owner.ID, key); err != nil {
			return err
		}
	}
	if _, err = roles.Assign(ctx, communityID, owner.ID, userID); err != nil {
		return err
	}
	_, err = members.Upsert(ctx, communityID, userID, model.MembershipApproved)
	return err
}

func (r *CommunityRepository) FindByID(ctx context.Context, id uint64) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).First(&community, id).Error
	return &community, err
}

func (r *CommunityRepository) FindByName(ctx context.Context, name string) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).Where("name = ?", name).First(&community).Error
	return &community, err
}

func (r *CommunityRepository) List(ctx context.Context, offset, limit int) ([]model.Community, error) {
	var list []model.Community
	err := r.DB.WithContext(ctx).Order("id desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

func (r *CommunityRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Community{}).Count(&n).Error
	return n, err
}
