package model

import "time"

// ReviewStatus 需要管理员审核的内容状态
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

type SharedJob struct {
	ID                uint64       `gorm:"primaryKey" json:"id"`
	CommunityID       uint64       `gorm:"not null;index" json:"community_id"`
	PostedBy          uint64       `gorm:"not null" json:"posted_by"`
	Company           string       `gorm:"size:140;not null" json:"company"`
	Title             string       `gorm:"size:140;not null" json:"title"`
	Location          string       `gorm:"size:140" json:"location"`
	Link              string       `gorm:"size:500" json:"link"`
	Description       string       `gorm:"type:text" json:"description"`
	Status            ReviewStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	ReviewedByAdminID *uint64      `json:"reviewed_by_admin_id"`
	ReviewedAt        *time.Time   `json:"reviewed_at"`
	CreatedAt         time.Time    `json:"created_at"`
}
