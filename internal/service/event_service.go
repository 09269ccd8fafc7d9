package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"alumni_network/internal/apperr"
	"alumni_network/internal/model"
	"alumni_network/internal/permission"
	"alumni_network/internal/pkg"
	"alumni_network/internal/repository/mysql"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const eventListLimit = 50

type EventService struct {
	repo       *mysql.EventRepository
	memberRepo *mysql.MembershipRepository
	community  *mysql.CommunityRepository
	users      *mysql.UserRepository
	authz      *AuthzService
	mailer     pkg.Mailer
	log        *logrus.Logger
	now        func() time.Time
}

func NewEventService(db *gorm.DB, authz *AuthzService, mailer pkg.Mailer, log *logrus.Logger) *EventService {
	return &EventService{
		repo:       &mysql.EventRepository{DB: db},
		memberRepo: &mysql.MembershipRepository{DB: db},
		community:  &mysql.CommunityRepository{DB: db},
		users:      &mysql.UserRepository{DB: db},
		authz:      authz,
		mailer:     mailer,
		log:        log,
		now:        time.Now,
	}
}

type EventInput struct {
	Title        string    `json:"title" binding:"required,max=255"`
	Description  string    `json:"description" binding:"required"`
	Location     string    `json:"location" binding:"required,max=255"`
	StartsAt     time.Time `json:"starts_at" binding:"required"`
	MaxAttendees int       `json:"max_attendees" binding:"required,min=1"`
}

// EventView 活动详情带剩余座位
type EventView struct {
	Event     *model.Event `json:"event"`
	Seats     int64        `json:"seats_taken"`
	SeatsLeft int64        `json:"seats_left"`
}

// CreateEvent 需要 manage_events
func (s *EventService) CreateEvent(ctx context.Context, communityID uint64, in EventInput, actorID uint64) (*model.Event, error) {
	if err := s.authz.RequirePermission(ctx, actorID, communityID, permission.ManageEvents); err != nil {
		return nil, err
	}
	e := &model.Event{
		CommunityID:  communityID,
		CreatedBy:    actorID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Location:     strings.TrimSpace(in.Location),
		StartsAt:     in.StartsAt.UTC(),
		MaxAttendees: in.MaxAttendees,
		Status:       model.EventActive,
	}
	var bad []string
	if e.Title == "" {
		bad = append(bad, "title")
	}
	if e.Description == "" {
		bad = append(bad, "description")
	}
	if e.Location == "" {
		bad = append(bad, "location")
	}
	if e.StartsAt.IsZero() {
		bad = append(bad, "starts_at")
	}
	if e.MaxAttendees < 1 {
		bad = append(bad, "max_attendees")
	}
	if len(bad) > 0 {
		return nil, apperr.Validation("invalid event", bad...)
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListEvents 未取消、未开始的活动
func (s *EventService) ListEvents(ctx context.Context, communityID uint64) ([]model.Event, error) {
	if _, err := s.community.FindByID(ctx, communityID); err != nil {
		return nil, notFound(err, apperr.ErrCommunityNotFound)
	}
	return s.repo.ListUpcoming(ctx, communityID, s.now().UTC(), eventListLimit)
}

func (s *EventService) findEvent(ctx context.Context, id uint64) (*model.Event, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperr.ErrEventNotFound)
	}
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint64) (*EventView, error) {
	e, err := s.findEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	seats, err := s.repo.CountSeats(ctx, id)
	if err != nil {
		return nil, err
	}
	left := int64(e.MaxAttendees) - seats
	if left < 0 {
		left = 0
	}
	return &EventView{Event: e, Seats: seats, SeatsLeft: left}, nil
}

// RegisterForEvent 只限社区成员；已报名返回原记录和 created=false，满员返回 ErrEventFull
func (s *EventService) RegisterForEvent(ctx context.Context, eventID, userID uint64) (*model.EventRegistration, bool, error) {
	if userID == 0 {
		return nil, false, apperr.ErrUnauthorized
	}
	e, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, false, err
	}
	if e.Status != model.EventActive {
		return nil, false, apperr.ErrEventUnavailable
	}
	ok, err := s.memberRepo.IsMember(ctx, e.CommunityID, userID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, apperr.ErrNotMember
	}
	reg, created, err := s.repo.Register(ctx, eventID, userID)
	switch {
	case errors.Is(err, mysql.ErrEventFull):
		return nil, false, apperr.ErrEventFull
	case errors.Is(err, mysql.ErrEventClosed):
		return nil, false, apperr.ErrEventUnavailable
	case err != nil:
		return nil, false, err
	}
	return reg, created, nil
}

// CancelRegistration 报名人本人或 manage_events 持有者；重复取消是 no-op
func (s *EventService) CancelRegistration(ctx context.Context, registrationID, actorID uint64) (*model.EventRegistration, error) {
	if actorID == 0 {
		return nil, apperr.ErrUnauthorized
	}
	reg, e, err := s.findRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.UserID != actorID {
		if err = s.authz.RequirePermission(ctx, actorID, e.CommunityID, permission.ManageEvents); err != nil {
			return nil, err
		}
	}
	switch reg.Status {
	case model.RegistrationCancelled:
		return reg, nil
	case model.RegistrationCheckedIn:
		return nil, apperr.Conflict("attendee already checked in")
	}
	if _, err = s.repo.CancelRegistration(ctx, reg.ID); err != nil {
		return nil, err
	}
	reg.Status = model.RegistrationCancelled
	return reg, nil
}

// CheckIn 只有 registered 状态能签到
func (s *EventService) CheckIn(ctx context.Context, registrationID, actorID uint64) (*model.EventRegistration, error) {
	reg, e, err := s.findRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if err = s.authz.RequirePermission(ctx, actorID, e.CommunityID, permission.ManageEvents); err != nil {
		return nil, err
	}
	at := s.now().UTC()
	changed, err := s.repo.CheckIn(ctx, reg.ID, at)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, apperr.Validation("only registered attendees can check in", "status")
	}
	reg.Status = model.RegistrationCheckedIn
	reg.CheckedInAt = &at
	return reg, nil
}

func (s *EventService) findRegistration(ctx context.Context, id uint64) (*model.EventRegistration, *model.Event, error) {
	reg, err := s.repo.FindRegistration(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, apperr.ErrRegistrationNotFound)
	}
	e, err := s.findEvent(ctx, reg.EventID)
	if err != nil {
		return nil, nil, err
	}
	return reg, e, nil
}

// CancelEvent 报名记录保留
func (s *EventService) CancelEvent(ctx context.Context, eventID, actorID uint64) (*model.Event, error) {
	e, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err = s.authz.RequirePermission(ctx, actorID, e.CommunityID, permission.ManageEvents); err != nil {
		return nil, err
	}
	if _, err = s.repo.Cancel(ctx, e.ID); err != nil {
		return nil, err
	}
	e.Status = model.EventCancelled
	return e, nil
}

func (s *EventService) ListRegistrations(ctx context.Context, eventID, actorID uint64) ([]model.EventRegistration, error) {
	e, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err = s.authz.RequirePermission(ctx, actorID, e.CommunityID, permission.ManageEvents); err != nil {
		return nil, err
	}
	return s.repo.ListRegistrations(ctx, eventID)
}

// SendReminders 给 registered 的报名人发邮件，单封失败只记日志；返回发出的数量
func (s *EventService) SendReminders(ctx context.Context, eventID, actorID uint64) (int, error) {
	e, err := s.findEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if err = s.authz.RequirePermission(ctx, actorID, e.CommunityID, permission.ManageEvents); err != nil {
		return 0, err
	}
	if e.Status != model.EventActive {
		return 0, apperr.ErrEventUnavailable
	}
	regs, err := s.repo.ListRegistrations(ctx, eventID, model.RegistrationRegistered)
	if err != nil {
		return 0, err
	}
	ids := make([]uint64, 0, len(regs))
	for _, r := range regs {
		ids = append(ids, r.UserID)
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	body := pkg.EventReminderHTML(e.Title, e.Location, e.StartsAt)
	sent := 0
	for _, u := range users {
		if err = s.mailer.Send(ctx, u.Email, "Reminder: "+e.Title, body); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"event_id": e.ID, "user_id": u.ID}).Warn("event reminder not sent")
			continue
		}
		sent++
	}
	return sent, nil
}
