package model

import "time"

type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "pending"
	MembershipApproved MembershipStatus = "approved"
)

type JoinMode string

const (
	JoinOpen    JoinMode = "open"
	JoinRequest JoinMode = "request"
)

type Community struct {
	ID                   uint64    `gorm:"primaryKey" json:"id"`
	Name                 string    `gorm:"uniqueIndex:uk_community_name;size:140;not null" json:"name"`
	Description          string    `gorm:"type:text" json:"description"`
	OwnerUserID          uint64    `gorm:"not null;index" json:"owner_user_id"`
	JoinRequiresApproval bool      `gorm:"not null;default:false" json:"join_requires_approval"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type CommunityMembership struct {
	ID          uint64           `gorm:"primaryKey" json:"id"`
	CommunityID uint64           `gorm:"not null;uniqueIndex:uk_membership_community_user" json:"community_id"`
	UserID      uint64           `gorm:"not null;index;uniqueIndex:uk_membership_community_user" json:"user_id"`
	Status      MembershipStatus `gorm:"size:20;not null;default:approved" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CommunityRole 社区内的命名角色
type CommunityRole struct {
	ID          uint64           `gorm:"primaryKey" json:"id"`
	CommunityID uint64           `gorm:"not null;uniqueIndex:uk_role_community_name" json:"community_id"`
	Name        string           `gorm:"size:80;not null;uniqueIndex:uk_role_community_name" json:"name"`
	Permissions []RolePermission `gorm:"foreignKey:RoleID" json:"permissions,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type RolePermission struct {
	ID     uint64 `gorm:"primaryKey" json:"-"`
	RoleID uint64 `gorm:"not null;uniqueIndex:uk_role_permission_key" json:"-"`
	Key    string `gorm:"column:perm_key;size:80;not null;uniqueIndex:uk_role_permission_key" json:"key"`
}

// RoleAssignment 每个用户在一个社区内最多持有一个角色
type RoleAssignment struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	CommunityID uint64    `gorm:"not null;uniqueIndex:uk_assignment_community_user" json:"community_id"`
	RoleID      uint64    `gorm:"not null;index" json:"role_id"`
	UserID      uint64    `gorm:"not null;index;uniqueIndex:uk_assignment_community_user" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}
