package model

import "time"

type OutboxStatus int8

const (
	OutboxPending OutboxStatus = 0
	OutboxSent    OutboxStatus = 1
	OutboxFailed  OutboxStatus = 2
)

const (
	EventMemberApproved     = "member_approved"
	EventRoleAssigned       = "role_assigned"
	EventConnectionAccepted = "connection_accepted"
)

// OutboxEvents 管理后台按事件统计用
var OutboxEvents = []string{EventMemberApproved, EventRoleAssigned, EventConnectionAccepted}

// CommunityOutbox 社区事件表，与业务写入同一事务；用户之间的事件 CommunityID 为 0
type CommunityOutbox struct {
	ID          uint64       `gorm:"primaryKey"`
	EventType   string       `gorm:"size:32;not null"`
	CommunityID uint64       `gorm:"not null"`
	UserID      uint64       `gorm:"not null"`
	Payload     string       `gorm:"type:text;not null"`
	Status      OutboxStatus `gorm:"not null;default:0;index"`
	Retry       int          `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CommunityOutbox) TableName() string { return "community_outbox" }

// All 迁移用
func All() []any {
	return []any{
		&User{},
		&AdminUser{},
		&Community{},
		&CommunityMembership{},
		&CommunityRole{},
		&RolePermission{},
		&RoleAssignment{},
		&CommunityPosition{},
		&PositionApplication{},
		&CommunityPost{},
		&PostLike{},
		&SharedJob{},
		&SponsorRequest{},
		&AdminSettings{},
		&Announcement{},
		&Event{},
		&EventRegistration{},
		&ContactRequest{},
		&Connection{},
		&Thread{},
		&Message{},
		&CommunityOutbox{},
	}
}
