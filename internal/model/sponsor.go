package model

import "time"

type SponsorTier string

const (
	TierFree     SponsorTier = "free"
	TierPriority SponsorTier = "priority"
)

type SponsorRequest struct {
	ID                uint64       `gorm:"primaryKey" json:"id"`
	PostID            uint64       `gorm:"not null;index" json:"post_id"`
	CommunityID       uint64       `gorm:"not null" json:"community_id"`
	RequestedBy       uint64       `gorm:"not null" json:"requested_by"`
	Tier              SponsorTier  `gorm:"size:20;not null;default:free" json:"tier"`
	Status            ReviewStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	PaidOK            bool         `gorm:"not null;default:false" json:"paid_ok"`
	ApprovedByAdminID *uint64      `json:"approved_by_admin_id"`
	ApprovedAt        *time.Time   `json:"approved_at"`
	ExpiresAt         *time.Time   `json:"expires_at"`
	CreatedAt         time.Time    `json:"created_at"`
}

type AdminSettings struct {
	ID                    uint64 `gorm:"primaryKey" json:"id"`
	SponsoredPerPage      int    `gorm:"not null;default:2" json:"sponsored_per_page"`
	SponsorshipExpiryDays int    `gorm:"not null;default:7" json:"sponsorship_expiry_days"`
	PriorityFeeCents      int    `gorm:"not null;default:5000" json:"priority_fee_cents"`
}

// DefaultAdminSettings 首次读取时写入的默认配置
func DefaultAdminSettings() AdminSettings {
	return AdminSettings{SponsoredPerPage: 2, SponsorshipExpiryDays: 7, PriorityFeeCents: 5000}
}

type Announcement struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:140;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	IsPinned  bool      `gorm:"not null;default:false" json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
}
