package notify

import (
	"context"
	"html/template"
	"time"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/config"
	"github.com/wneessen/go-mail"
)

// SMTPMailer 每封邮件单独建立连接，发送量很小
type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
		mail.WithTimeout(time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &SMTPMailer{client: client, from: cfg.Email.SMTP.Username}, nil
}

func (m *SMTPMailer) Mail(ctx context.Context, to, subject string, tmpl *template.Template, data any) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	if err := msg.SetBodyHTMLTemplate(tmpl, data); err != nil {
		return err
	}

	return m.client.DialAndSendWithContext(ctx, msg)
}

func (m *SMTPMailer) Close() error {
	return m.client.Close()
}
