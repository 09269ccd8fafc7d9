package model

import "time"

// Thread 两人私信会话，(user_a, user_b) 唯一
type Thread struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserA     uint64    `gorm:"not null;uniqueIndex:uk_thread_pair,priority:1" json:"user_a"`
	UserB     uint64    `gorm:"not null;uniqueIndex:uk_thread_pair,priority:2;index" json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (t *Thread) HasParticipant(userID uint64) bool {
	return userID != 0 && (t.UserA == userID || t.UserB == userID)
}

type Message struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	ThreadID  uint64    `gorm:"not null;index:idx_message_thread_time,priority:1" json:"thread_id"`
	SenderID  uint64    `gorm:"not null" json:"sender_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"index:idx_message_thread_time,priority:2" json:"created_at"`
}
