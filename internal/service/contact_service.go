package service

import (
	"context"
	"errors"
	"time"

	"alumni_network/internal/apperr"
	"alumni_network/internal/model"
	"alumni_network/internal/repository/mysql"

	"gorm.io/gorm"
)

// contactRequests 加好友和私信请求共用的发送/处理流程
type contactRequests struct {
	repo  *mysql.ContactRepository
	users *mysql.UserRepository
}

func newContactRequests(db *gorm.DB) contactRequests {
	return contactRequests{
		repo:  &mysql.ContactRepository{DB: db},
		users: &mysql.UserRepository{DB: db},
	}
}

// send 对方已经发来同类请求时返回 Conflict，让用户去接受那一条
func (c contactRequests) send(ctx context.Context, kind model.RequestKind, fromID, toID uint64) (*model.ContactRequest, bool, error) {
	if fromID == 0 {
		return nil, false, apperr.ErrUnauthorized
	}
	if toID == 0 {
		return nil, false, apperr.Validation("to_user_id required", "to_user_id")
	}
	if fromID == toID {
		return nil, false, apperr.ErrSelfRequest
	}
	to, err := c.users.FindByID(ctx, toID)
	if err != nil {
		return nil, false, notFound(err, apperr.ErrUserNotFound)
	}
	if to.IsBanned {
		return nil, false, apperr.ErrUserNotFound
	}
	reverse, err := c.repo.FindPending(ctx, kind, toID, fromID)
	if err != nil {
		return nil, false, err
	}
	if reverse != nil {
		return nil, false, apperr.Conflict("this user already sent you a request")
	}
	return c.repo.Send(ctx, kind, fromID, toID)
}

// pending 只有收件人能处理，且请求必须还是 pending
func (c contactRequests) pending(ctx context.Context, kind model.RequestKind, requestID, actorID uint64) (*model.ContactRequest, error) {
	if actorID == 0 {
		return nil, apperr.ErrUnauthorized
	}
	req, err := c.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, apperr.ErrRequestNotFound)
	}
	if req.Kind != kind {
		return nil, apperr.ErrRequestNotFound
	}
	if req.ToUserID != actorID {
		return nil, apperr.ErrForbidden
	}
	if req.Status != model.RequestPending {
		return nil, apperr.ErrRequestHandled
	}
	return req, nil
}

func (c contactRequests) accept(ctx context.Context, kind model.RequestKind, requestID, actorID uint64) (*model.ContactRequest, *model.Thread, error) {
	req, err := c.pending(ctx, kind, requestID, actorID)
	if err != nil {
		return nil, nil, err
	}
	thread, err := c.repo.Accept(ctx, req)
	if errors.Is(err, mysql.ErrRequestHandled) {
		return nil, nil, apperr.ErrRequestHandled
	}
	if err != nil {
		return nil, nil, err
	}
	return req, thread, nil
}

func (c contactRequests) reject(ctx context.Context, kind model.RequestKind, requestID, actorID uint64) (*model.ContactRequest, error) {
	req, err := c.pending(ctx, kind, requestID, actorID)
	if err != nil {
		return nil, err
	}
	err = c.repo.Reject(ctx, req)
	if errors.Is(err, mysql.ErrRequestHandled) {
		return nil, apperr.ErrRequestHandled
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (c contactRequests) incoming(ctx context.Context, kind model.RequestKind, userID, cursor uint64, limit int) ([]model.ContactRequest, uint64, error) {
	if userID == 0 {
		return nil, 0, apperr.ErrUnauthorized
	}
	return c.repo.ListIncoming(ctx, kind, userID, cursor, limit)
}

type ConnectionService struct {
	contactRequests
}

func NewConnectionService(db *gorm.DB) *ConnectionService {
	return &ConnectionService{contactRequests: newContactRequests(db)}
}

// SendRequest 已是好友返回 ErrAlreadyConnected；重复发送返回已有请求和 created=false
func (s *ConnectionService) SendRequest(ctx context.Context, fromID, toID uint64) (*model.ContactRequest, bool, error) {
	if fromID != 0 && toID != 0 && fromID != toID {
		connected, err := s.repo.AreConnected(ctx, fromID, toID)
		if err != nil {
			return nil, false, err
		}
		if connected {
			return nil, false, apperr.ErrAlreadyConnected
		}
	}
	return s.send(ctx, model.RequestConnect, fromID, toID)
}

func (s *ConnectionService) Accept(ctx context.Context, requestID, actorID uint64) (*model.ContactRequest, error) {
	req, _, err := s.accept(ctx, model.RequestConnect, requestID, actorID)
	return req, err
}

func (s *ConnectionService) Reject(ctx context.Context, requestID, actorID uint64) (*model.ContactRequest, error) {
	return s.reject(ctx, model.RequestConnect, requestID, actorID)
}

func (s *ConnectionService) Incoming(ctx context.Context, userID, cursor uint64, limit int) ([]model.ContactRequest, uint64, error) {
	return s.incoming(ctx, model.RequestConnect, userID, cursor, limit)
}

// Contact 好友列表里的一项
type Contact struct {
	UserID    uint64    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Headline  string    `json:"headline"`
	Connected time.Time `json:"connected_at"`
}

func (s *ConnectionService) ListConnections(ctx context.Context, userID, cursor uint64, limit int) ([]Contact, uint64, error) {
	if userID == 0 {
		return nil, 0, apperr.ErrUnauthorized
	}
	rows, next, err := s.repo.ListConnections(ctx, userID, cursor, limit)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uint64, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].Other(userID))
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint64]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	out := make([]Contact, 0, len(rows))
	for i := range rows {
		other := rows[i].Other(userID)
		c := Contact{UserID: other, Connected: rows[i].CreatedAt}
		if u, ok := byID[other]; ok {
			c.FullName, c.Headline = u.FullName, u.Headline
		}
		out = append(out, c)
	}
	return out, next, nil
}

func (s *ConnectionService) AreConnected(ctx context.Context, x, y uint64) (bool, error) {
	if x == 0 || y == 0 || x == y {
		return false, nil
	}
	return s.repo.AreConnected(ctx, x, y)
}
