package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"alumni_network/internal/apperr"
	"alumni_network/internal/model"
	"alumni_network/internal/repository/mysql"

	"gorm.io/gorm"
)

// Profile 对外展示的校友资料，不含邮箱和封禁状态
type Profile struct {
	ID          uint64 `json:"id"`
	FullName    string `json:"full_name"`
	Headline    string `json:"headline"`
	Bio         string `json:"bio"`
	Faculty     string `json:"faculty"`
	GradYear    *int   `json:"grad_year"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Connections int64  `json:"connections"`
}

func profileOf(u *model.User) Profile {
	return Profile{
		ID:       u.ID,
		FullName: u.FullName,
		Headline: u.Headline,
		Bio:      u.Bio,
		Faculty:  u.Faculty,
		GradYear: u.GradYear,
		Company:  u.Company,
		Location: u.Location,
	}
}

type ProfileService struct {
	users    *mysql.UserRepository
	contacts *mysql.ContactRepository
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{
		users:    &mysql.UserRepository{DB: db},
		contacts: &mysql.ContactRepository{DB: db},
	}
}

// GetProfile 被封禁的用户视为不存在
func (s *ProfileService) GetProfile(ctx context.Context, id uint64) (*Profile, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperr.ErrUserNotFound)
	}
	if u.IsBanned {
		return nil, apperr.ErrUserNotFound
	}
	p := profileOf(u)
	if p.Connections, err = s.contacts.CountConnections(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// Me 本人视角，返回完整用户
func (s *ProfileService) Me(ctx context.Context, userID uint64) (*model.User, error) {
	if userID == 0 {
		return nil, apperr.ErrUnauthorized
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, apperr.ErrUserNotFound)
	}
	return u, nil
}

// ProfileInput 未传的字段不改
type ProfileInput struct {
	FullName        *string `json:"full_name" binding:"omitempty,max=120"`
	Headline        *string `json:"headline" binding:"omitempty,max=120"`
	Bio             *string `json:"bio"`
	Faculty         *string `json:"faculty" binding:"omitempty,max=120"`
	Company         *string `json:"company" binding:"omitempty,max=120"`
	Location        *string `json:"location" binding:"omitempty,max=120"`
	GradYear        *int    `json:"grad_year" binding:"omitempty,min=1900,max=2100"`
	ShowInDirectory *bool   `json:"show_in_directory"`
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint64, in ProfileInput) (*model.User, error) {
	if _, err := s.Me(ctx, userID); err != nil {
		return nil, err
	}
	cols := map[string]any{}
	var bad []string
	text := func(col string, v *string, required bool) {
		if v == nil {
			return
		}
		val := strings.TrimSpace(*v)
		if (required && val == "") || (col != "bio" && utf8.RuneCountInString(val) > 120) {
			bad = append(bad, col)
			return
		}
		cols[col] = val
	}
	text("full_name", in.FullName, true)
	text("headline", in.Headline, false)
	text("bio", in.Bio, false)
	text("faculty", in.Faculty, false)
	text("company", in.Company, false)
	text("location", in.Location, false)
	if in.GradYear != nil {
		if *in.GradYear < 1900 || *in.GradYear > 2100 {
			bad = append(bad, "grad_year")
		} else {
			cols["grad_year"] = *in.GradYear
		}
	}
	if in.ShowInDirectory != nil {
		cols["show_in_directory"] = *in.ShowInDirectory
	}
	if len(bad) > 0 {
		return nil, apperr.Validation("invalid profile", bad...)
	}
	if err := s.users.UpdateProfile(ctx, userID, cols); err != nil {
		return nil, err
	}
	return s.Me(ctx, userID)
}

func (s *ProfileService) Directory(ctx context.Context, page, size int) ([]Profile, error) {
	offset, limit := pageOf(page, size, 20, 50)
	users, err := s.users.ListDirectory(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(users))
	for i := range users {
		out = append(out, profileOf(&users[i]))
	}
	return out, nil
}
