package mysql

import (
	"context"
	"errors"
	"time"

	"alumni_network/internal/model"

	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

// FindOrCreateThread a < b；两人之间只有一个会话
func (r *MessageRepository) FindOrCreateThread(ctx context.Context, a, b uint64) (*model.Thread, error) {
	t := model.Thread{UserA: a, UserB: b}
	if _, err := firstOrCreate(r.DB.WithContext(ctx), &t, map[string]any{"user_a": a, "user_b": b}); err != nil {
		return nil, err
	}
	return &t, nil
}

// ThreadBetween 未找到返回 (nil, nil)
func (r *MessageRepository) ThreadBetween(ctx context.Context, x, y uint64) (*model.Thread, error) {
	a, b := model.SortPair(x, y)
	var t model.Thread
	err := r.DB.WithContext(ctx).Where("user_a = ? AND user_b = ?", a, b).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *MessageRepository) FindThread(ctx context.Context, id uint64) (*model.Thread, error) {
	var t model.Thread
	err := r.DB.WithContext(ctx).First(&t, id).Error
	return &t, err
}

// ListThreads 最近有消息的会话在前
func (r *MessageRepository) ListThreads(ctx context.Context, userID uint64, limit int) ([]model.Thread, error) {
	var list []model.Thread
	err := r.DB.WithContext(ctx).
		Where("user_a = ? OR user_b = ?", userID, userID).
		Order("updated_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// ListMessages 按时间正序，afterID 之后的 limit 条
func (r *MessageRepository) ListMessages(ctx context.Context, threadID, afterID uint64, limit int) ([]model.Message, error) {
	var list []model.Message
	q := r.DB.WithContext(ctx).Where("thread_id = ?", threadID)
	if afterID > 0 {
		q = q.Where("id > ?", afterID)
	}
	err := q.Order("id ASC").Limit(limit).Find(&list).Error
	return list, err
}

// Post 写消息并刷新会话时间，同一事务
func (r *MessageRepository) Post(ctx context.Context, m *model.Message) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&model.Thread{}).Where("id = ?", m.ThreadID).
			Update("updated_at", time.Now()).Error
	})
}
