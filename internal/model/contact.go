package model

import "time"

type RequestKind string

const (
	RequestConnect RequestKind = "connect"
	RequestMessage RequestKind = "message"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// ContactRequest 用户之间的加好友/私信请求，同一方向同一种类只能有一条 pending
type ContactRequest struct {
	ID         uint64        `gorm:"primaryKey" json:"id"`
	Kind       RequestKind   `gorm:"size:16;not null;index:idx_request_from_to,priority:1" json:"kind"`
	FromUserID uint64        `gorm:"not null;index:idx_request_from_to,priority:2" json:"from_user_id"`
	ToUserID   uint64        `gorm:"not null;index:idx_request_from_to,priority:3;index:idx_request_to_status" json:"to_user_id"`
	Status     RequestStatus `gorm:"size:16;not null;default:pending;index:idx_request_to_status" json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Connection 无向好友关系，UserA 总是较小的 id
type Connection struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserA     uint64    `gorm:"not null;uniqueIndex:uk_connection_pair,priority:1" json:"user_a"`
	UserB     uint64    `gorm:"not null;uniqueIndex:uk_connection_pair,priority:2;index" json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
}

// SortPair 无序的一对用户按 (小, 大) 存
func SortPair(x, y uint64) (uint64, uint64) {
	if x > y {
		return y, x
	}
	return x, y
}

// Other 关系里对方的 id
func (c *Connection) Other(userID uint64) uint64 {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}
