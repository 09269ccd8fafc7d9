package mysql

import (
	"context"
	"errors"
	"time"

	"alumni_network/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEventClosed = errors.New("event is not active")
	ErrEventFull   = errors.New("event is full")
)

type EventRepository struct {
	DB *gorm.DB
}

func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) FindByID(ctx context.Context, id uint64) (*model.Event, error) {
	var e model.Event
	err := r.DB.WithContext(ctx).First(&e, id).Error
	return &e, err
}

// ListUpcoming 社区内未取消且未开始的活动，按开始时间升序
func (r *EventRepository) ListUpcoming(ctx context.Context, communityID uint64, from time.Time, limit int) ([]model.Event, error) {
	var list []model.Event
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND status = ? AND starts_at >= ?", communityID, model.EventActive, from).
		Order("starts_at ASC, id ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *EventRepository) Cancel(ctx context.Context, id uint64) (bool, error) {
	tx := r.DB.WithContext(ctx).Model(&model.Event{}).
		Where("id = ? AND status = ?", id, model.EventActive).
		Update("status", model.EventCancelled)
	return tx.RowsAffected > 0, tx.Error
}

// CountSeats 已报名和已签到都算
func (r *EventRepository) CountSeats(ctx context.Context, eventID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.EventRegistration{}).
		Where("event_id = ? AND status IN ?", eventID, []model.RegistrationStatus{model.RegistrationRegistered, model.RegistrationCheckedIn}).
		Count(&n).Error
	return n, err
}

func (r *EventRepository) FindRegistration(ctx context.Context, id uint64) (*model.EventRegistration, error) {
	var reg model.EventRegistration
	err := r.DB.WithContext(ctx).First(&reg, id).Error
	return &reg, err
}

func (r *EventRepository) ListRegistrations(ctx context.Context, eventID uint64, statuses ...model.RegistrationStatus) ([]model.EventRegistration, error) {
	var list []model.EventRegistration
	q := r.DB.WithContext(ctx).Where("event_id = ?", eventID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Order("id ASC").Find(&list).Error
	return list, err
}

// Register 锁住活动行再数座位，同一活动的报名串行执行。
// 已占座时返回已有记录和 created=false；取消过的报名重新占座
func (r *EventRepository) Register(ctx context.Context, eventID, userID uint64) (*model.EventRegistration, bool, error) {
	var (
		reg     model.EventRegistration
		created bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e model.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&e, eventID).Error; err != nil {
			return err
		}
		if e.Status != model.EventActive {
			return ErrEventClosed
		}

		err := tx.Where("event_id = ? AND user_id = ?", eventID, userID).First(&reg).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if found && reg.HoldsSeat() {
			return nil
		}

		seats, err := (&EventRepository{DB: tx}).CountSeats(ctx, eventID)
		if err != nil {
			return err
		}
		if seats >= int64(e.MaxAttendees) {
			return ErrEventFull
		}

		created = true
		if found {
			reg.Status = model.RegistrationRegistered
			reg.CheckedInAt = nil
			return tx.Model(&reg).Updates(map[string]any{"status": reg.Status, "checked_in_at": nil}).Error
		}
		reg = model.EventRegistration{EventID: eventID, UserID: userID, Status: model.RegistrationRegistered}
		return tx.Create(&reg).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &reg, created, nil
}

// CancelRegistration 只有 registered 能取消，返回是否改动
func (r *EventRepository) CancelRegistration(ctx context.Context, id uint64) (bool, error) {
	tx := r.DB.WithContext(ctx).Model(&model.EventRegistration{}).
		Where("id = ? AND status = ?", id, model.RegistrationRegistered).
		Update("status", model.RegistrationCancelled)
	return tx.RowsAffected > 0, tx.Error
}

// CheckIn 只有 registered 能签到
func (r *EventRepository) CheckIn(ctx context.Context, id uint64, at time.Time) (bool, error) {
	tx := r.DB.WithContext(ctx).Model(&model.EventRegistration{}).
		Where("id = ? AND status = ?", id, model.RegistrationRegistered).
		Updates(map[string]any{"status": model.RegistrationCheckedIn, "checked_in_at": at})
	return tx.RowsAffected > 0, tx.Error
}
