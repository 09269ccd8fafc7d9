package service

import (
	"context"
	"errors"
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

const minPasswordLen = 8

var (
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
	ErrAccountRestricted  = apperr.Forbidden("your account is restricted, contact an admin")
	ErrEmailTaken         = apperr.Conflict("account already exists")
)

type UserService struct {
	repo     *mysql.UserRepository
	tokens   *redis.TokenRepository
	emailSvc *EmailService
	jwt      *pkg.JWTManager
	now      func() time.Time
}

func NewUserService(db *gorm.DB, tokens *redis.TokenRepository, emailSvc *EmailService, jwt *pkg.JWTManager) *UserService {
	return &UserService{
		repo:     &mysql.UserRepository{DB: db},
		tokens:   tokens,
		emailSvc: emailSvc,
		jwt:      jwt,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Faculty  string `json:"faculty"`
	GradYear *int   `json:"grad_year"`
	Code     string `json:"code" binding:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(field, pw string) error {
	if len(pw) < minPasswordLen {
		return apperr.Validation("password must be at least 8 characters", field)
	}
	return nil
}

// Register 只接受 .edu 邮箱，验证码用过即失效
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	if !strings.HasSuffix(email, ".edu") {
		return nil, apperr.Validation("email must be a .edu address", "email")
	}
	if err := checkPassword("password", in.Password); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, apperr.Validation("full name required", "full_name")
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 验证code是否正确
	if err := s.emailSvc.VerifyCode(ctx, ScopeRegister, email, in.Code); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:    email,
		Password: string(hash),
		FullName: name,
		Faculty:  strings.TrimSpace(in.Faculty),
		GradYear: in.GradYear,
	}
	if err = s.repo.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Login 新 token 覆盖旧 token，旧会话随即失效
func (s *UserService) Login(ctx context.Context, email, password string) (*pkg.Pair, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, notFound(err, ErrInvalidCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Restricted(s.now()) {
		return nil, ErrAccountRestricted
	}
	return s.issue(ctx, user.ID)
}

func (s *UserService) issue(ctx context.Context, userID uint64) (*pkg.Pair, error) {
	pair, err := s.jwt.GeneratePair(userID, pkg.RoleUser)
	if err != nil {
		return nil, err
	}
	if err = s.tokens.Save(ctx, userID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	return s.tokens.Delete(ctx, userID)
}

// Refresh 被封禁或停用的账号不能续期
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := s.jwt.ParseRefresh(refreshToken)
	if err != nil || claims.Role != pkg.RoleUser {
		return nil, apperr.Unauthorized("invalid or expired refresh token")
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, notFound(err, apperr.Unauthorized("invalid or expired refresh token"))
	}
	if user.Restricted(s.now()) {
		return nil, ErrAccountRestricted
	}
	return s.issue(ctx, user.ID)
}

func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := checkPassword("new_password", newPassword); err != nil {
		return err
	}
	email = normalizeEmail(email)
	if err := s.emailSvc.VerifyCode(ctx, ScopeReset, email, code); err != nil {
		return err
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return notFound(err, apperr.ErrUserNotFound)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err = s.repo.UpdatePassword(ctx, user, string(hash)); err != nil {
		return err
	}
	return s.Logout(ctx, user.ID)
}

// ChangePassword 登录态修改密码，成功后强制重新登录
func (s *UserService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	if err := checkPassword("new_password", newPassword); err != nil {
		return err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return notFound(err, apperr.ErrUserNotFound)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return apperr.Validation("old password is incorrect", "old_password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err = s.repo.UpdatePassword(ctx, user, string(hash)); err != nil {
		return err
	}
	return s.Logout(ctx, userID)
}
