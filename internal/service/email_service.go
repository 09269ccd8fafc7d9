package service

import (
	"context"
	"errors"

	"alumni_network/internal/apperr"
	"alumni_network/internal/pkg"
	"alumni_network/internal/repository/redis"
)

const (
	ScopeRegister = "register"
	ScopeReset    = "reset"
)

var ErrCodeInvalid = apperr.Validation("verification code is invalid or expired", "code")

type EmailService struct {
	mailer pkg.Mailer
	rds    *redis.EmailRepository
}

func NewEmailService(mailer pkg.Mailer, rds *redis.EmailRepository) *EmailService {
	return &EmailService{mailer: mailer, rds: rds}
}

var subjects = map[string]string{
	ScopeRegister: "registration",
	ScopeReset:    "password reset",
}

// SendCode 先写 pending，邮件发出后再转 confirmed
func (s *EmailService) SendCode(ctx context.Context, scope, email string) error {
	subject, ok := subjects[scope]
	if !ok {
		return apperr.Validation("unknown code scope", "scope")
	}
	email = normalizeEmail(email)
	if email == "" {
		return apperr.Validation("email required", "email")
	}
	code, err := pkg.RandDigits(pkg.CodeLength)
	if err != nil {
		return err
	}
	if err = s.rds.SavePending(ctx, scope, email, code); err != nil {
		return err
	}

	html := pkg.EmailCodeHTML(subject, code, redis.DefaultEmailCodeTTL)
	if err = s.mailer.Send(ctx, email, "Your "+subject+" code", html); err != nil {
		_ = s.rds.DeletePending(ctx, scope, email)
		return err
	}

	if err = s.rds.Confirm(ctx, scope, email); err != nil {
		_ = s.rds.DeletePending(ctx, scope, email)
		return err
	}
	return nil
}

// VerifyCode 校验并一次性删除
func (s *EmailService) VerifyCode(ctx context.Context, scope, email, code string) error {
	err := s.rds.Consume(ctx, scope, normalizeEmail(email), code)
	if errors.Is(err, redis.ErrEmailNotFound) || errors.Is(err, redis.ErrCodeMismatch) {
		return ErrCodeInvalid
	}
	return err
}
