package service

import (
	"context"
	"time"

	"alumni_network/internal/model"
	"alumni_network/internal/repository/mysql"

	"gorm.io/gorm"
)

const (
	feedAnnouncements = 5
	feedTrending      = 10
	trendingWindow    = 7 * 24 * time.Hour
)

type FeedService struct {
	announcements *mysql.AnnouncementRepository
	sponsors      *mysql.SponsorRepository
	posts         *mysql.PostRepository
	settings      *mysql.SettingsRepository
	now           func() time.Time
}

func NewFeedService(db *gorm.DB) *FeedService {
	return &FeedService{
		announcements: &mysql.AnnouncementRepository{DB: db},
		sponsors:      &mysql.SponsorRepository{DB: db},
		posts:         &mysql.PostRepository{DB: db},
		settings:      &mysql.SettingsRepository{DB: db},
		now:           time.Now,
	}
}

type Feed struct {
	Announcements []model.Announcement   `json:"announcements"`
	Sponsored     []model.SponsorRequest `json:"sponsored"`
	Trending      []model.CommunityPost  `json:"trending"`
}

// GuestFeed 公告 + 生效中的推广 + 最近 7 天热门帖子
func (s *FeedService) GuestFeed(ctx context.Context) (*Feed, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	feed := &Feed{}
	if feed.Announcements, err = s.announcements.Latest(ctx, feedAnnouncements); err != nil {
		return nil, err
	}
	if feed.Sponsored, err = s.sponsors.Active(ctx, now, cfg.SponsoredPerPage); err != nil {
		return nil, err
	}
	if feed.Trending, err = s.posts.Trending(ctx, now.Add(-trendingWindow), feedTrending); err != nil {
		return nil, err
	}
	return feed, nil
}
