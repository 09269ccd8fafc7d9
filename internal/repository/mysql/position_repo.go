package mysql

import (
	"context"

	"alumni_network/internal/model"

	"gorm.io/gorm"
)

type PositionRepository struct {
	DB *gorm.DB
}

func (r *PositionRepository) Create(ctx context.Context, p *model.CommunityPosition) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *PositionRepository) FindByID(ctx context.Context, id uint64) (*model.CommunityPosition, error) {
	var p model.CommunityPosition
	err := r.DB.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *PositionRepository) ListByCommunity(ctx context.Context, communityID uint64, limit int) ([]model.CommunityPosition, error) {
	var list []model.CommunityPosition
	err := r.DB.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// CreateApplication 唯一 (position_id, user_id)，重复时返回 gorm.ErrDuplicatedKey
func (r *PositionRepository) CreateApplication(ctx context.Context, app *model.PositionApplication) error {
	db := r.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&model.PositionApplication{}).
		Where("position_id = ? AND user_id = ?", app.PositionID, app.UserID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return gorm.ErrDuplicatedKey
	}
	return db.Create(app).Error
}

func (r *PositionRepository) FindApplication(ctx context.Context, id uint64) (*model.PositionApplication, error) {
	var app model.PositionApplication
	err := r.DB.WithContext(ctx).First(&app, id).Error
	return &app, err
}

func (r *PositionRepository) ListApplications(ctx context.Context, positionID uint64) ([]model.PositionApplication, error) {
	var list []model.PositionApplication
	err := r.DB.WithContext(ctx).
		Where("position_id = ?", positionID).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// Accept 同一事务：申请置为 accepted；岗位带角色时按先到先得绑定角色并写 role_assigned 事件。
// 返回本次是否新建了角色绑定
func (r *PositionRepository) Accept(ctx context.Context, pos *model.CommunityPosition, app *model.PositionApplication) (bool, error) {
	var granted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PositionApplication{}).
			Where("id = ?", app.ID).
			Update("status", model.ApplicationAccepted).Error; err != nil {
			return err
		}
		if !pos.GrantsRole() {
			return nil
		}
		roles := &RoleRepository{DB: tx}
		created, err := roles.Assign(ctx, pos.CommunityID, *pos.RoleToAssignID, app.UserID)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}
		granted = true
		return insertOutbox(tx, model.EventRoleAssigned, pos.CommunityID, app.UserID, map[string]any{
			"role_id":        *pos.RoleToAssignID,
			"position_id":    pos.ID,
			"application_id": app.ID,
		})
	})
	if err != nil {
		return false, err
	}
	app.Status = model.ApplicationAccepted
	return granted, nil
}
