package model

import "time"

type EventStatus string

const (
	EventActive    EventStatus = "active"
	EventCancelled EventStatus = "cancelled"
)

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationCancelled  RegistrationStatus = "cancelled"
	RegistrationCheckedIn  RegistrationStatus = "checked_in"
)

// Event 社区活动，MaxAttendees 为占座上限
type Event struct {
	ID           uint64      `gorm:"primaryKey" json:"id"`
	CommunityID  uint64      `gorm:"not null;index:idx_event_community_time,priority:1" json:"community_id"`
	CreatedBy    uint64      `gorm:"not null" json:"created_by"`
	Title        string      `gorm:"size:255;not null" json:"title"`
	Description  string      `gorm:"type:text;not null" json:"description"`
	Location     string      `gorm:"size:255;not null" json:"location"`
	StartsAt     time.Time   `gorm:"not null;index:idx_event_community_time,priority:2" json:"starts_at"`
	MaxAttendees int         `gorm:"not null" json:"max_attendees"`
	Status       EventStatus `gorm:"size:20;not null;default:active" json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// EventRegistration (event_id, user_id) 唯一；取消后再报名复用同一行
type EventRegistration struct {
	ID          uint64             `gorm:"primaryKey" json:"id"`
	EventID     uint64             `gorm:"not null;uniqueIndex:uk_registration_event_user,priority:1;index:idx_registration_event_status,priority:1" json:"event_id"`
	UserID      uint64             `gorm:"not null;uniqueIndex:uk_registration_event_user,priority:2;index" json:"user_id"`
	Status      RegistrationStatus `gorm:"size:20;not null;default:registered;index:idx_registration_event_status,priority:2" json:"status"`
	CheckedInAt *time.Time         `json:"checked_in_at"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// HoldsSeat 已报名和已签到都占座
func (r *EventRegistration) HoldsSeat() bool {
	return r.Status == RegistrationRegistered || r.Status == RegistrationCheckedIn
}
