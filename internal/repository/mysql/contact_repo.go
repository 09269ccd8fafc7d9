package mysql

import (
	"context"
	"errors"

	"alumni_network/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRequestHandled = errors.New("request is not pending")

type ContactRepository struct {
	DB *gorm.DB
}

// Send 同方向同种类已有 pending 请求时直接返回它，created=false（幂等）
func (r *ContactRepository) Send(ctx context.Context, kind model.RequestKind, fromID, toID uint64) (*model.ContactRequest, bool, error) {
	var (
		req     model.ContactRequest
		created bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// select for update 避免重复发送
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("kind = ? AND from_user_id = ? AND to_user_id = ? AND status = ?", kind, fromID, toID, model.RequestPending).
			First(&req).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		req = model.ContactRequest{Kind: kind, FromUserID: fromID, ToUserID: toID, Status: model.RequestPending}
		created = true
		return tx.Create(&req).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &req, created, nil
}

func (r *ContactRepository) FindByID(ctx context.Context, id uint64) (*model.ContactRequest, error) {
	var req model.ContactRequest
	err := r.DB.WithContext(ctx).First(&req, id).Error
	return &req, err
}

// FindPending 未找到返回 (nil, nil)
func (r *ContactRepository) FindPending(ctx context.Context, kind model.RequestKind, fromID, toID uint64) (*model.ContactRequest, error) {
	var req model.ContactRequest
	err := r.DB.WithContext(ctx).
		Where("kind = ? AND from_user_id = ? AND to_user_id = ? AND status = ?", kind, fromID, toID, model.RequestPending).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Accept 同一事务：请求置为 accepted；connect 建好友关系并写 connection_accepted 事件，message 建私信会话。
// 请求已被处理过返回 ErrRequestHandled
func (r *ContactRepository) Accept(ctx context.Context, req *model.ContactRequest) (*model.Thread, error) {
	var thread *model.Thread
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.markHandled(tx, req.ID, model.RequestAccepted); err != nil {
			return err
		}
		a, b := model.SortPair(req.FromUserID, req.ToUserID)
		switch req.Kind {
		case model.RequestConnect:
			conn := model.Connection{UserA: a, UserB: b}
			created, err := firstOrCreate(tx, &conn, map[string]any{"user_a": a, "user_b": b})
			if err != nil || !created {
				return err
			}
			return insertOutbox(tx, model.EventConnectionAccepted, 0, req.ToUserID, map[string]any{
				"from_user_id": req.FromUserID,
				"to_user_id":   req.ToUserID,
				"request_id":   req.ID,
			})
		case model.RequestMessage:
			var err error
			thread, err = (&MessageRepository{DB: tx}).FindOrCreateThread(ctx, a, b)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	req.Status = model.RequestAccepted
	return thread, nil
}

func (r *ContactRepository) Reject(ctx context.Context, req *model.ContactRequest) error {
	if err := r.markHandled(r.DB.WithContext(ctx), req.ID, model.RequestRejected); err != nil {
		return err
	}
	req.Status = model.RequestRejected
	return nil
}

// markHandled 只改 pending 的请求，避免重复接受
func (r *ContactRepository) markHandled(tx *gorm.DB, id uint64, status model.RequestStatus) error {
	res := tx.Model(&model.ContactRequest{}).
		Where("id = ? AND status = ?", id, model.RequestPending).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRequestHandled
	}
	return nil
}

// ListIncoming 收到的 pending 请求，按 id 倒序游标分页
func (r *ContactRepository) ListIncoming(ctx context.Context, kind model.RequestKind, userID, cursor uint64, limit int) ([]model.ContactRequest, uint64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.DB.WithContext(ctx).Model(&model.ContactRequest{}).
		Where("kind = ? AND to_user_id = ? AND status = ?", kind, userID, model.RequestPending)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var rows []model.ContactRequest
	// 多取一条用来判断还有没有下一页
	if err := q.Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	var next uint64
	if len(rows) > limit {
		next = rows[limit-1].ID
		rows = rows[:limit]
	}
	return rows, next, nil
}

func (r *ContactRepository) AreConnected(ctx context.Context, x, y uint64) (bool, error) {
	a, b := model.SortPair(x, y)
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Connection{}).
		Where("user_a = ? AND user_b = ?", a, b).
		Count(&n).Error
	return n > 0, err
}

// ListConnections 用户的好友关系，游标分页同 ListIncoming
func (r *ContactRepository) ListConnections(ctx context.Context, userID, cursor uint64, limit int) ([]model.Connection, uint64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.DB.WithContext(ctx).Model(&model.Connection{}).
		Where("user_a = ? OR user_b = ?", userID, userID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var rows []model.Connection
	if err := q.Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	var next uint64
	if len(rows) > limit {
		next = rows[limit-1].ID
		rows = rows[:limit]
	}
	return rows, next, nil
}

func (r *ContactRepository) CountConnections(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Connection{}).
		Where("user_a = ? OR user_b = ?", userID, userID).
		Count(&n).Error
	return n, err
}
