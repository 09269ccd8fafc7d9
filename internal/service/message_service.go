package service

import (
	"context"
	"strings"

	"alumni_network/internal/apperr"
	"alumni_network/internal/model"
	"alumni_network/internal/repository/mysql"

	"gorm.io/gorm"
)

const (
	inboxLimit     = 50
	messagePage    = 100
	maxMessageSize = 4000
)

// MessageService 私信：先发请求，对方接受后才有会话
type MessageService struct {
	contactRequests
	threads *mysql.MessageRepository
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{
		contactRequests: newContactRequests(db),
		threads:         &mysql.MessageRepository{DB: db},
	}
}

// SendRequest 已有会话时不用再发请求，直接返回 Conflict
func (s *MessageService) SendRequest(ctx context.Context, fromID, toID uint64) (*model.ContactRequest, bool, error) {
	if fromID != 0 && toID != 0 && fromID != toID {
		t, err := s.threads.ThreadBetween(ctx, fromID, toID)
		if err != nil {
			return nil, false, err
		}
		if t != nil {
			return nil, false, apperr.Conflict("a conversation with this user already exists")
		}
	}
	return s.send(ctx, model.RequestMessage, fromID, toID)
}

// AcceptRequest 返回新建或已有的会话
func (s *MessageService) AcceptRequest(ctx context.Context, requestID, actorID uint64) (*model.Thread, error) {
	_, thread, err := s.accept(ctx, model.RequestMessage, requestID, actorID)
	return thread, err
}

func (s *MessageService) RejectRequest(ctx context.Context, requestID, actorID uint64) (*model.ContactRequest, error) {
	return s.reject(ctx, model.RequestMessage, requestID, actorID)
}

func (s *MessageService) Incoming(ctx context.Context, userID, cursor uint64, limit int) ([]model.ContactRequest, uint64, error) {
	return s.incoming(ctx, model.RequestMessage, userID, cursor, limit)
}

func (s *MessageService) Inbox(ctx context.Context, userID uint64) ([]model.Thread, error) {
	if userID == 0 {
		return nil, apperr.ErrUnauthorized
	}
	return s.threads.ListThreads(ctx, userID, inboxLimit)
}

// thread 非参与者一律 Forbidden
func (s *MessageService) thread(ctx context.Context, threadID, userID uint64) (*model.Thread, error) {
	if userID == 0 {
		return nil, apperr.ErrUnauthorized
	}
	t, err := s.threads.FindThread(ctx, threadID)
	if err != nil {
		return nil, notFound(err, apperr.ErrThreadNotFound)
	}
	if !t.HasParticipant(userID) {
		return nil, apperr.ErrForbidden
	}
	return t, nil
}

func (s *MessageService) Messages(ctx context.Context, threadID, userID, afterID uint64) ([]model.Message, error) {
	if _, err := s.thread(ctx, threadID, userID); err != nil {
		return nil, err
	}
	return s.threads.ListMessages(ctx, threadID, afterID, messagePage)
}

func (s *MessageService) Send(ctx context.Context, threadID, senderID uint64, body string) (*model.Message, error) {
	t, err := s.thread(ctx, threadID, senderID)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" || len([]rune(body)) > maxMessageSize {
		return nil, apperr.Validation("message body must be 1 to 4000 characters", "body")
	}
	m := &model.Message{ThreadID: t.ID, SenderID: senderID, Body: body}
	if err = s.threads.Post(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
