package mysql

import (
	"context"
	"time"

	"alumni_network/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(ctx context.Context, post *model.CommunityPost) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

// FindByID 只返回未删除的帖子
func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.CommunityPost, error) {
	var post model.CommunityPost
	err := r.DB.WithContext(ctx).First(&post, "id = ? AND status = ?", id, model.PostNormal).Error
	return &post, err
}

// FindAny 包括已删除
func (r *PostRepository) FindAny(ctx context.Context, id uint64) (*model.CommunityPost, error) {
	var post model.CommunityPost
	err := r.DB.WithContext(ctx).First(&post, id).Error
	return &post, err
}

// ListByCommunity 基础分页查询
func (r *PostRepository) ListByCommunity(ctx context.Context, communityID uint64, offset, limit int) ([]model.CommunityPost, error) {
	var list []model.CommunityPost
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND status = ?", communityID, model.PostNormal).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

// ListByCommunityCursor 时间游标：先比 created_at，同一时间点用 id 打破并列
func (r *PostRepository) ListByCommunityCursor(ctx context.Context, communityID, lastID uint64, lastCreatedAt time.Time, limit int) ([]model.CommunityPost, error) {
	var list []model.CommunityPost
	q := r.DB.WithContext(ctx).Where("community_id = ? AND status = ?", communityID, model.PostNormal)
	if !lastCreatedAt.IsZero() {
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", lastCreatedAt, lastCreatedAt, lastID)
	}
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

// Trending since 之后发布的帖子按点赞数排序
func (r *PostRepository) Trending(ctx context.Context, since time.Time, limit int) ([]model.CommunityPost, error) {
	var list []model.CommunityPost
	err := r.DB.WithContext(ctx).
		Where("status = ? AND created_at >= ?", model.PostNormal, since).
		Order("like_count DESC, created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// SoftDelete 幂等，已删除时 affected=0
func (r *PostRepository) SoftDelete(ctx context.Context, id uint64) (int64, error) {
	tx := r.DB.WithContext(ctx).Model(&model.CommunityPost{}).
		Where("id = ? AND status = ?", id, model.PostNormal).
		Update("status", model.PostDeleted)
	return tx.RowsAffected, tx.Error
}
