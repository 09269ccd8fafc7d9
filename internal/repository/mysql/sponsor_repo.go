package mysql

import (
	"context"
	"errors"
	"time"

	"alumni_network/internal/model"

	"gorm.io/gorm"
)

type SponsorRepository struct {
	DB *gorm.DB
}

func (r *SponsorRepository) Create(ctx context.Context, req *model.SponsorRequest) error {
	return r.DB.WithContext(ctx).Create(req).Error
}

func (r *SponsorRepository) FindByID(ctx context.Context, id uint64) (*model.SponsorRequest, error) {
	var req model.SponsorRequest
	err := r.DB.WithContext(ctx).First(&req, id).Error
	return &req, err
}

func (r *SponsorRepository) MarkPaid(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SponsorRequest{}).Where("id = ?", id).Update("paid_ok", true).Error
}

func (r *SponsorRepository) ListPending(ctx context.Context, limit int) ([]model.SponsorRequest, error) {
	var list []model.SponsorRequest
	err := r.DB.WithContext(ctx).
		Where("status = ?", model.ReviewPending).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *SponsorRepository) Approve(ctx context.Context, id, adminID uint64, at, expires time.Time) (int64, error) {
	tx := r.DB.WithContext(ctx).Model(&model.SponsorRequest{}).
		Where("id = ? AND status = ?", id, model.ReviewPending).
		Updates(map[string]any{
			"status":               model.ReviewApproved,
			"approved_by_admin_id": adminID,
			"approved_at":          at,
			"expires_at":           expires,
		})
	return tx.RowsAffected, tx.Error
}

func (r *SponsorRepository) Reject(ctx context.Context, id, adminID uint64, at time.Time) (int64, error) {
	tx := r.DB.WithContext(ctx).Model(&model.SponsorRequest{}).
		Where("id = ? AND status = ?", id, model.ReviewPending).
		Updates(map[string]any{
			"status":               model.ReviewRejected,
			"approved_by_admin_id": adminID,
			"approved_at":          at,
		})
	return tx.RowsAffected, tx.Error
}

// Active 已批准且未过期；tier 倒序即 priority 在前，其次按批准时间倒序
func (r *SponsorRepository) Active(ctx context.Context, now time.Time, limit int) ([]model.SponsorRequest, error) {
	if limit <= 0 {
		return nil, nil
	}
	var list []model.SponsorRequest
	err := r.DB.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at > ?", model.ReviewApproved, now).
		Order("tier DESC, approved_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *SponsorRepository) CountByStatus(ctx context.Context, status model.ReviewStatus) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.SponsorRequest{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

type SettingsRepository struct {
	DB *gorm.DB
}

// Get 单行配置，不存在时写入默认值
func (r *SettingsRepository) Get(ctx context.Context) (*model.AdminSettings, error) {
	db := r.DB.WithContext(ctx)
	var s model.AdminSettings
	err := db.First(&s).Error
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	s = model.DefaultAdminSettings()
	if err = db.Create(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *model.AdminSettings) error {
	return r.DB.WithContext(ctx).Save(s).Error
}

type AnnouncementRepository struct {
	DB *gorm.DB
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *model.Announcement) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

// Latest 置顶优先
func (r *AnnouncementRepository) Latest(ctx context.Context, limit int) ([]model.Announcement, error) {
	var list []model.Announcement
	err := r.DB.WithContext(ctx).
		Order("is_pinned DESC").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
