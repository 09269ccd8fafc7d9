package mysql

import (
	"context"

	"alumni_network/internal/model"

	"gorm.io/gorm"
)

type AdminRepository struct {
	DB *gorm.DB
}

func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	var a model.AdminUser
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&a).Error
	return &a, err
}

func (r *AdminRepository) FindByID(ctx context.Context, id uint64) (*model.AdminUser, error) {
	var a model.AdminUser
	err := r.DB.WithContext(ctx).First(&a, id).Error
	return &a, err
}

// Upsert 按用户名创建或重置密码，保持启用
func (r *AdminRepository) Upsert(ctx context.Context, username, hashed string) (*model.AdminUser, bool, error) {
	db := r.DB.WithContext(ctx)
	a := model.AdminUser{Username: username, Password: hashed, IsActive: true}
	created, err := firstOrCreate(db, &a, map[string]any{"username": username})
	if err != nil {
		return nil, false, err
	}
	if !created {
		if err = db.Model(&a).Updates(map[string]any{"password": hashed, "is_active": true}).Error; err != nil {
			return nil, false, err
		}
		a.Password, a.IsActive = hashed, true
	}
	return &a, created, nil
}
