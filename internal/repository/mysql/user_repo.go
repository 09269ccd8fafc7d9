package mysql

import (
	"context"
	"time"

	"alumni_network/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var usr model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&usr).Error
	return &usr, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, user *model.User, newPassword string) error {
	return r.DB.WithContext(ctx).Model(user).Update("password", newPassword).Error
}

// SetBanned 封禁同时清掉停用期
func (r *UserRepository) SetBanned(ctx context.Context, id uint64, banned bool) (int64, error) {
	tx := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]any{"is_banned": banned, "suspended_until": nil})
	return tx.RowsAffected, tx.Error
}

func (r *UserRepository) SuspendUntil(ctx context.Context, id uint64, until time.Time) (int64, error) {
	tx := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("suspended_until", until)
	return tx.RowsAffected, tx.Error
}

func (r *UserRepository) Count(ctx context.Context) (total, banned int64, err error) {
	db := r.DB.WithContext(ctx).Model(&model.User{})
	if err = db.Count(&total).Error; err != nil {
		return
	}
	err = r.DB.WithContext(ctx).Model(&model.User{}).Where("is_banned = ?", true).Count(&banned).Error
	return
}

func (r *UserRepository) ListByIDs(ctx context.Context, ids []uint64) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.User
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&list).Error
	return list, err
}

// ListDirectory 公开目录：未封禁且愿意展示的校友
func (r *UserRepository) ListDirectory(ctx context.Context, offset, limit int) ([]model.User, error) {
	var list []model.User
	err := r.DB.WithContext(ctx).
		Where("show_in_directory = ? AND is_banned = ?", true, false).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

// UpdateProfile 只改传入的列
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint64, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(cols).Error
}
