// Package channels - Kênh gửi thông báo ra ngoài. Hiện có email qua SMTP (ZeptoMail hoặc SMTP bất kỳ).
package channels

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/soringifei/lapiqure-sub001/config"
	"github.com/soringifei/lapiqure-sub001/internal/logger"
)

// SMTPConfig thông tin kết nối SMTP + người gửi
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

// SMTPConfigFrom lấy SMTPConfig từ cấu hình server
func SMTPConfigFrom(c *config.Configuration) SMTPConfig {
	return SMTPConfig{
		Host:      c.SMTPHost,
		Port:      c.SMTPPort,
		Username:  c.SMTPUsername,
		Password:  c.SMTPPassword,
		FromName:  c.MailFromName,
		FromEmail: c.MailFromEmail,
	}
}

// SMTPSender gửi email HTML qua gomail
type SMTPSender struct {
	cfg  SMTPConfig
	send func(msgs ...*gomail.Message) error
}

// NewSMTPSender tạo sender, thiếu host hoặc email người gửi -> lỗi
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" || strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, errors.New("smtp: thiếu SMTP_HOST hoặc MAIL_FROM_EMAIL")
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPSender{cfg: cfg, send: dialer.DialAndSend}, nil
}

// buildMessage 1 email gửi cho tất cả người nhận
func (s *SMTPSender) buildMessage(recipients []string, subject, html string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	return msg
}

// Send gửi email HTML. gomail không nhận context nên chỉ kiểm tra hủy trước khi quay số
// và trả về sớm nếu ctx hết hạn trong lúc gửi (phiên SMTP vẫn chạy nốt ở goroutine riêng).
func (s *SMTPSender) Send(ctx context.Context, recipients []string, subject, html string) error {
	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	if len(to) == 0 {
		return errors.New("smtp: không có người nhận")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.buildMessage(to, subject, html)
	done := make(chan error, 1)
	go func() { done <- s.send(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
		}
		logger.GetAppLogger().WithFields(logrus.Fields{
			"recipients": len(to),
			"subject":    subject,
		}).Info("📧 [EMAIL] Đã gửi email")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
