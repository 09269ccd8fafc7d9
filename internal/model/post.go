package model

import "time"

type PostStatus int

const (
	PostNormal  PostStatus = 0
	PostDeleted PostStatus = 1
)

type CommunityPost struct {
	ID          uint64     `gorm:"primaryKey" json:"id"`
	CommunityID uint64     `gorm:"not null;index:idx_post_community_time,priority:1" json:"community_id"`
	AuthorID    uint64     `gorm:"not null;index:idx_post_author" json:"author_id"`
	Body        string     `gorm:"type:text;not null" json:"body"`
	Status      PostStatus `gorm:"not null;default:0" json:"status"`
	LikeCount   int64      `gorm:"not null;default:0" json:"like_count"`
	CreatedAt   time.Time  `gorm:"index:idx_post_community_time,priority:2" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PostLike (post_id, user_id) 唯一，重复点赞由唯一索引兜底
type PostLike struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	PostID    uint64    `gorm:"not null;uniqueIndex:uk_like_post_user,priority:1" json:"post_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_like_post_user,priority:2;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostLike) TableName() string { return "post_likes" }
