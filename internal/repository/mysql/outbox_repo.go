package mysql

import (
	"context"
	"encoding/json"
	"time"

	"alumni_network/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// insertOutbox 和业务写入用同一个 tx
func insertOutbox(tx *gorm.DB, event string, communityID, userID uint64, extra map[string]any) error {
	body := map[string]any{
		"event":        event,
		"event_time":   time.Now().UTC().Format(time.RFC3339Nano),
		"community_id": communityID,
		"user_id":      userID,
	}
	for k, v := range extra {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tx.Create(&model.CommunityOutbox{
		EventType:   event,
		CommunityID: communityID,
		UserID:      userID,
		Payload:     string(payload),
		Status:      model.OutboxPending,
	}).Error
}

// MaxRetry 超过后不再投递，留给人工处理
const MaxRetry = 5

// List 待发送以及还能重试的失败记录
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.CommunityOutbox, error) {
	var list []model.CommunityOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, MaxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 发送失败，标记 failed 并累加重试次数
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.CommunityOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.CommunityOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

// CountByEvent 包括已发送的
func (r *OutboxRepository) CountByEvent(ctx context.Context, event string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityOutbox{}).Where("event_type = ?", event).Count(&n).Error
	return n, err
}
