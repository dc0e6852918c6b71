package service

import (
	"context"
	"fmt"
	"html"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer 通过 SMTP 发送邮件
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

// LogMailer 未启用邮件时只记录日志
type LogMailer struct{}

func (LogMailer) Send(to, subject, _ string) error {
	logger.Log.Info("mail disabled, skip sending", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func NewMailer(cfg config.MailConfig) Mailer {
	if !cfg.Enabled || cfg.Host == "" {
		return LogMailer{}
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

type userFinder interface {
	FindUser(id uint) (*model.User, error)
}

// MailHook 证书签发后异步发邮件，发送失败不影响任何业务状态
type MailHook struct {
	Mailer    Mailer
	Users     userFinder
	PublicURL string
}

func (h *MailHook) Name() string { return "mail" }

func (h *MailHook) Handle(_ context.Context, ev Event) error {
	if ev.Kind != EventCertificateIssued || ev.Certificate == nil {
		return nil
	}
	cert := *ev.Certificate
	go h.sendCertificate(ev.UserID, cert)
	return nil
}

func (h *MailHook) sendCertificate(userID uint, cert model.Certificate) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("certificate mail panic", zap.Any("recover", r))
		}
	}()

	user, err := h.Users.FindUser(userID)
	if err != nil {
		logger.Log.Warn("certificate mail: user lookup failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	subject := fmt.Sprintf("恭喜获得证书：%s", cert.Title)
	body := fmt.Sprintf(
		`<p>%s，您好：</p><p>恭喜您完成《%s》，证书编号 <b>%s</b>。</p><p>验证地址：<a href="%s/verify/%s">%s/verify/%s</a></p>`,
		html.EscapeString(user.Name), html.EscapeString(cert.Title), cert.Number,
		h.PublicURL, cert.Number, h.PublicURL, cert.Number,
	)
	if err := h.Mailer.Send(user.Email, subject, body); err != nil {
		logger.Log.Warn("certificate mail failed",
			zap.Uint("user_id", userID),
			zap.String("certificate", cert.Number),
			zap.Error(err))
	}
}
