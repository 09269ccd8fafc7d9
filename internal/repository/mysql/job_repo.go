package mysql

import (
	"context"
	"time"

	"alumni_network/internal/model"

	"gorm.io/gorm"
)

type JobRepository struct {
	DB *gorm.DB
}

func (r *JobRepository) Create(ctx context.Context, job *model.SharedJob) error {
	return r.DB.WithContext(ctx).Create(job).Error
}

func (r *JobRepository) FindByID(ctx context.Context, id uint64) (*model.SharedJob, error) {
	var job model.SharedJob
	err := r.DB.WithContext(ctx).First(&job, id).Error
	return &job, err
}

// List communityID=0 表示不限社区
func (r *JobRepository) List(ctx context.Context, communityID uint64, status model.ReviewStatus, limit int) ([]model.SharedJob, error) {
	var list []model.SharedJob
	q := r.DB.WithContext(ctx).Where("status = ?", status)
	if communityID > 0 {
		q = q.Where("community_id = ?", communityID)
	}
	err := q.Order("id DESC").Limit(limit).Find(&list).Error
	return list, err
}

// Review 只处理 pending 的记录，返回受影响行数
func (r *JobRepository) Review(ctx context.Context, id, adminID uint64, status model.ReviewStatus, at time.Time) (int64, error) {
	tx := r.DB.WithContext(ctx).Model(&model.SharedJob{}).
		Where("id = ? AND status = ?", id, model.ReviewPending).
		Updates(map[string]any{
			"status":               status,
			"reviewed_by_admin_id": adminID,
			"reviewed_at":          at,
		})
	return tx.RowsAffected, tx.Error
}

func (r *JobRepository) CountByStatus(ctx context.Context, status model.ReviewStatus) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.SharedJob{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
