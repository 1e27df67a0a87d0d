package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/go-kanban/internal/config"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer delivers login codes by email.
type Mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
	codeTTL  time.Duration
	send     sendFunc
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		codeTTL:  cfg.CodeTTL,
		send:     smtp.SendMail,
	}
}

// SendCode mails code to email. net/smtp has no context support, so ctx is
// only checked before dialing.
func (m *Mailer) SendCode(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body := fmt.Sprintf("Your login code is %s.\r\nIt expires in %s.\r\n", code, m.codeTTL)
	return m.SendEmail(email, "Your login code", body)
}

func (m *Mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := m.send(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	return nil
}
