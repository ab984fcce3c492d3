package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"unialloc/backend/config"
)

// Mailer SMTP 邮件发送器
// 未配置 smtp_host 时自动降级为空操作，开发环境无需邮件服务
type Mailer struct {
	cfg    *config.MailConfig
	logger *zap.Logger
}

// NewMailer 创建邮件发送器
func NewMailer(cfg *config.MailConfig, logger *zap.Logger) *Mailer {
	if cfg.SMTPHost == "" {
		logger.Warn("未配置 SMTP，邮件发送将被跳过")
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Send 发送纯文本邮件
func (m *Mailer) Send(to, subject, body string) error {
	if m.cfg.SMTPHost == "" {
		m.logger.Debug("跳过邮件发送（SMTP 未配置）", zap.String("to", to))
		return nil
	}

	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.From + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}
