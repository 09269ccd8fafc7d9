package mysql

import (
	"context"
	"errors"

	"alumni_network/internal/model"

	"gorm.io/gorm"
)

type MembershipRepository struct {
	DB *gorm.DB
}

// Upsert 不存在则按 status 创建，存在则改成 status
func (r *MembershipRepository) Upsert(ctx context.Context, communityID, userID uint64, status model.MembershipStatus) (*model.CommunityMembership, error) {
	db := r.DB.WithContext(ctx)
	m := model.CommunityMembership{CommunityID: communityID, UserID: userID, Status: status}
	created, err := firstOrCreate(db, &m, map[string]any{"community_id": communityID, "user_id": userID})
	if err != nil {
		return nil, err
	}
	if !created && m.Status != status {
		if err = db.Model(&m).Update("status", status).Error; err != nil {
			return nil, err
		}
		m.Status = status
	}
	return &m, nil
}

// Find 未找到时返回 (nil, nil)
func (r *MembershipRepository) Find(ctx context.Context, communityID, userID uint64) (*model.CommunityMembership, error) {
	var m model.CommunityMembership
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MembershipRepository) FindByID(ctx context.Context, id uint64) (*model.CommunityMembership, error) {
	var m model.CommunityMembership
	err := r.DB.WithContext(ctx).First(&m, id).Error
	return &m, err
}

func (r *MembershipRepository) ListByStatus(ctx context.Context, communityID uint64, status model.MembershipStatus) ([]model.CommunityMembership, error) {
	var list []model.CommunityMembership
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND status = ?", communityID, status).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *MembershipRepository) IsMember(ctx context.Context, communityID, userID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMembership{}).
		Where("community_id = ? AND user_id = ? AND status = ?", communityID, userID, model.MembershipApproved).
		Count(&count).Error
	return count > 0, err
}

func (r *MembershipRepository) CountByStatus(ctx context.Context, status model.MembershipStatus) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMembership{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

// Approve 置为 approved 并写 member_approved 事件；已是 approved 时返回 changed=false
func (r *MembershipRepository) Approve(ctx context.Context, m *model.CommunityMembership) (bool, error) {
	if m.Status == model.MembershipApproved {
		return false, nil
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CommunityMembership{}).
			Where("id = ? AND status <> ?", m.ID, model.MembershipApproved).
			Update("status", model.MembershipApproved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return insertOutbox(tx, model.EventMemberApproved, m.CommunityID, m.UserID, map[string]any{"membership_id": m.ID})
	})
	if err != nil {
		return false, err
	}
	m.Status = model.MembershipApproved
	return true, nil
}

// LeaveWithRole 同一事务删除成员关系和角色绑定
func (r *MembershipRepository) LeaveWithRole(ctx context.Context, communityID, userID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			Delete(&model.RoleAssignment{}).Error; err != nil {
			return err
		}
		return tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			Delete(&model.CommunityMembership{}).Error
	})
}
