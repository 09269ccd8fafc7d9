package pkg

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string // 发件人邮箱
	Password string // 授权码/密码
	From     string // 显示的发件人，可与 Username 相同
}

// Mailer 发信接口，测试里替换成内存实现
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &SMTPMailer{cfg: cfg, dialer: d}
}

func (s *SMTPMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return s.dialer.DialAndSend(m)
}

// LogMailer 未配置 SMTP 时使用，只打日志
type LogMailer struct {
	Log *logrus.Logger
}

func (l *LogMailer) Send(_ context.Context, to, subject, _ string) error {
	l.Log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("mail not sent, smtp disabled")
	return nil
}

func EmailCodeHTML(subject, code string, ttl time.Duration) string {
	return fmt.Sprintf(`<p>Hello,</p><p>Your <b>%s</b> verification code is <b style="font-size:18px;">%s</b>.</p><p>It expires in %d minutes. Do not share it with anyone.</p>`,
		subject, code, int(ttl.Minutes()))
}

// EventReminderHTML 活动提醒邮件，标题和地点来自用户输入需要转义
func EventReminderHTML(title, location string, startsAt time.Time) string {
	return fmt.Sprintf(`<p>Hello,</p><p>Reminder: <b>%s</b> starts at %s.</p><p>Location: %s</p>`,
		html.EscapeString(title), startsAt.UTC().Format("2006-01-02 15:04 MST"), html.EscapeString(location))
}
