package model

import "time"

type User struct {
	ID             uint64     `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"uniqueIndex:uk_user_email;size:255;not null" json:"email"`
	Password       string     `gorm:"size:255;not null" json:"-"`
	FullName       string     `gorm:"size:120;not null" json:"full_name"`
	Headline       string     `gorm:"size:120" json:"headline"`
	Bio            string     `gorm:"type:text" json:"bio"`
	Faculty        string     `gorm:"size:120" json:"faculty"`
	GradYear       *int       `json:"grad_year"`
	Company        string     `gorm:"size:120" json:"company"`
	Location       string     `gorm:"size:120" json:"location"`
	Listed         bool       `gorm:"column:show_in_directory;not null;default:true" json:"show_in_directory"`
	IsBanned       bool       `gorm:"not null;default:false" json:"is_banned"`
	SuspendedUntil *time.Time `json:"suspended_until"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Restricted 被封禁或仍在停用期
func (u *User) Restricted(now time.Time) bool {
	return u.IsBanned || (u.SuspendedUntil != nil && u.SuspendedUntil.After(now))
}

type AdminUser struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex:uk_admin_username;size:80;not null" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
