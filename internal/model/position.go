package model

import "time"

type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
)

type CommunityPosition struct {
	ID               uint64         `gorm:"primaryKey" json:"id"`
	CommunityID      uint64         `gorm:"not null;index" json:"community_id"`
	Title            string         `gorm:"size:140;not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	IsRoleAssignment bool           `gorm:"not null;default:false" json:"is_role_assignment"`
	RoleToAssignID   *uint64        `json:"role_to_assign_id"`
	Status           PositionStatus `gorm:"size:20;not null;default:open" json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
}

// GrantsRole 接受申请时是否需要分配角色
func (p *CommunityPosition) GrantsRole() bool {
	return p.IsRoleAssignment && p.RoleToAssignID != nil
}

type PositionApplication struct {
	ID         uint64            `gorm:"primaryKey" json:"id"`
	PositionID uint64            `gorm:"not null;uniqueIndex:uk_application_position_user" json:"position_id"`
	UserID     uint64            `gorm:"not null;index;uniqueIndex:uk_application_position_user" json:"user_id"`
	Note       string            `gorm:"type:text" json:"note"`
	Status     ApplicationStatus `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
