package service

import (
	"context"
	"strings"
	"time"

	"alumni_network/internal/apperr"
	"alumni_network/internal/model"
	"alumni_network/internal/pkg"
	"alumni_network/internal/repository/mysql"
	"alumni_network/internal/repository/redis"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AdminService struct {
	admins        *mysql.AdminRepository
	users         *mysql.UserRepository
	communities   *mysql.CommunityRepository
	members       *mysql.MembershipRepository
	jobs          *mysql.JobRepository
	sponsors      *mysql.SponsorRepository
	settings      *mysql.SettingsRepository
	announcements *mysql.AnnouncementRepository
	outbox        *mysql.OutboxRepository
	tokens        *redis.TokenRepository
	userTokens    *redis.TokenRepository
	jwt           *pkg.JWTManager
	now           func() time.Time
}

// NewAdminService tokens 存管理员会话，userTokens 用来踢下线被封禁的用户
func NewAdminService(db *gorm.DB, tokens, userTokens *redis.TokenRepository, jwt *pkg.JWTManager) *AdminService {
	return &AdminService{
		admins:        &mysql.AdminRepository{DB: db},
		users:         &mysql.UserRepository{DB: db},
		communities:   &mysql.CommunityRepository{DB: db},
		members:       &mysql.MembershipRepository{DB: db},
		jobs:          &mysql.JobRepository{DB: db},
		sponsors:      &mysql.SponsorRepository{DB: db},
		settings:      &mysql.SettingsRepository{DB: db},
		announcements: &mysql.AnnouncementRepository{DB: db},
		outbox:        &mysql.OutboxRepository{DB: db},
		tokens:        tokens,
		userTokens:    userTokens,
		jwt:           jwt,
		now:           time.Now,
	}
}

func (s *AdminService) AdminLogin(ctx context.Context, username, password string) (*pkg.Pair, error) {
	admin, err := s.admins.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, notFound(err, ErrInvalidCredentials)
	}
	if !admin.IsActive || bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	pair, err := s.jwt.GeneratePair(admin.ID, pkg.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err = s.tokens.Save(ctx, admin.ID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AdminService) AdminLogout(ctx context.Context, adminID uint64) error {
	return s.tokens.Delete(ctx, adminID)
}

// EnsureAdmin 不存在则创建，存在则重置密码
func (s *AdminService) EnsureAdmin(ctx context.Context, username, password string) (*model.AdminUser, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, false, apperr.Validation("username required", "username")
	}
	if err := checkPassword("password", password); err != nil {
		return nil, false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}
	return s.admins.Upsert(ctx, username, string(hash))
}

func (s *AdminService) Settings(ctx context.Context) (*model.AdminSettings, error) {
	return s.settings.Get(ctx)
}

type SettingsInput struct {
	SponsoredPerPage      *int `json:"sponsored_per_page" binding:"omitempty,min=0,max=20"`
	SponsorshipExpiryDays *int `json:"sponsorship_expiry_days" binding:"omitempty,min=1,max=365"`
	PriorityFeeCents      *int `json:"priority_fee_cents" binding:"omitempty,min=0"`
}

// UpdateSettings 只改传了的字段
func (s *AdminService) UpdateSettings(ctx context.Context, in SettingsInput) (*model.AdminSettings, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	var bad []string
	if in.SponsoredPerPage != nil {
		if *in.SponsoredPerPage < 0 {
			bad = append(bad, "sponsored_per_page")
		}
		cfg.SponsoredPerPage = *in.SponsoredPerPage
	}
	if in.SponsorshipExpiryDays != nil {
		if *in.SponsorshipExpiryDays < 1 {
			bad = append(bad, "sponsorship_expiry_days")
		}
		cfg.SponsorshipExpiryDays = *in.SponsorshipExpiryDays
	}
	if in.PriorityFeeCents != nil {
		if *in.PriorityFeeCents < 0 {
			bad = append(bad, "priority_fee_cents")
		}
		cfg.PriorityFeeCents = *in.PriorityFeeCents
	}
	if len(bad) > 0 {
		return nil, apperr.Validation("invalid settings", bad...)
	}
	if err = s.settings.Save(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

type Report struct {
	Users struct {
		Total  int64 `json:"total"`
		Banned int64 `json:"banned"`
	} `json:"users"`
	Communities        int64 `json:"communities"`
	PendingMemberships int64 `json:"pending_memberships"`
	Jobs               struct {
		Pending  int64 `json:"pending"`
		Approved int64 `json:"approved"`
	} `json:"jobs"`
	Sponsorships struct {
		Pending  int64 `json:"pending"`
		Approved int64 `json:"approved"`
	} `json:"sponsorships"`
	// Events 各类 outbox 事件累计数量
	Events map[string]int64 `json:"events"`
}

func (s *AdminService) Report(ctx context.Context) (*Report, error) {
	r := &Report{}
	var err error
	if r.Users.Total, r.Users.Banned, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if r.Communities, err = s.communities.Count(ctx); err != nil {
		return nil, err
	}
	if r.PendingMemberships, err = s.members.CountByStatus(ctx, model.MembershipPending); err != nil {
		return nil, err
	}
	if r.Jobs.Pending, err = s.jobs.CountByStatus(ctx, model.ReviewPending); err != nil {
		return nil, err
	}
	if r.Jobs.Approved, err = s.jobs.CountByStatus(ctx, model.ReviewApproved); err != nil {
		return nil, err
	}
	if r.Sponsorships.Pending, err = s.sponsors.CountByStatus(ctx, model.ReviewPending); err != nil {
		return nil, err
	}
	if r.Sponsorships.Approved, err = s.sponsors.CountByStatus(ctx, model.ReviewApproved); err != nil {
		return nil, err
	}
	r.Events = make(map[string]int64, len(model.OutboxEvents))
	for _, ev := range model.OutboxEvents {
		if r.Events[ev], err = s.outbox.CountByEvent(ctx, ev); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (s *AdminService) findUser(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperr.ErrUserNotFound)
	}
	return u, nil
}

// BanUser 同时踢掉当前会话
func (s *AdminService) BanUser(ctx context.Context, id uint64) (*model.User, error) {
	if _, err := s.findUser(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.users.SetBanned(ctx, id, true); err != nil {
		return nil, err
	}
	if err := s.userTokens.Delete(ctx, id); err != nil {
		return nil, err
	}
	return s.findUser(ctx, id)
}

func (s *AdminService) UnbanUser(ctx context.Context, id uint64) (*model.User, error) {
	if _, err := s.findUser(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.users.SetBanned(ctx, id, false); err != nil {
		return nil, err
	}
	return s.findUser(ctx, id)
}

func (s *AdminService) SuspendUser(ctx context.Context, id uint64, days int) (*model.User, error) {
	if days < 1 || days > 365 {
		return nil, apperr.Validation("days must be between 1 and 365", "days")
	}
	if _, err := s.findUser(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.users.SuspendUntil(ctx, id, s.now().AddDate(0, 0, days)); err != nil {
		return nil, err
	}
	if err := s.userTokens.Delete(ctx, id); err != nil {
		return nil, err
	}
	return s.findUser(ctx, id)
}

func (s *AdminService) CreateAnnouncement(ctx context.Context, title, body string, pinned bool) (*model.Announcement, error) {
	a := &model.Announcement{Title: strings.TrimSpace(title), Body: strings.TrimSpace(body), IsPinned: pinned}
	var missing []string
	if a.Title == "" {
		missing = append(missing, "title")
	}
	if a.Body == "" {
		missing = append(missing, "body")
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("title and body are required", missing...)
	}
	if err := s.announcements.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
