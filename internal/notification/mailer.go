package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/flowhq/flow-api/internal/config"
)

// OutboundEmail is one fully-rendered message ready for the wire.
type OutboundEmail struct {
	To      string
	ReplyTo string
	Subject string
	// HTMLBody is the rendered body; nudge templates are HTML fragments.
	HTMLBody string
}

// Mailer delivers a single rendered email. Transport retries and pooling are
// not its problem; callers decide whether a failed send is retried.
type Mailer interface {
	Send(email OutboundEmail) error
}

// SMTPMailer sends mail through a plain SMTP server.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer constructs a new SMTPMailer from config.
func NewSMTPMailer(cfg config.EmailConfig) (*SMTPMailer, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, fmt.Errorf("smtp_host is required")
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("email from address is required")
	}

	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}, nil
}

func (m *SMTPMailer) Send(email OutboundEmail) error {
	headers := strings.Builder{}
	headers.WriteString(fmt.Sprintf("From: %s\r\n", m.from))
	headers.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	if strings.TrimSpace(email.ReplyTo) != "" {
		headers.WriteString(fmt.Sprintf("Reply-To: %s\r\n", email.ReplyTo))
	}
	headers.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	headers.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n")

	message := []byte(headers.String() + email.HTMLBody)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if strings.TrimSpace(m.username) != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{email.To}, message)
}
