package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender submits messages over an SMTP-compatible transport with PLAIN
// auth (STARTTLS is negotiated by net/smtp when the server offers it).
type SMTPSender struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewSMTPSender constructs an SMTPSender.
func NewSMTPSender(host string, port int, user, pass, from string) (*SMTPSender, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("mail: SMTP host is required")
	}
	if from == "" {
		from = user
	}
	if from == "" {
		return nil, fmt.Errorf("mail: from address is required")
	}
	return &SMTPSender{host: host, port: port, user: user, pass: pass, from: from}, nil
}

// Send submits one plain-text message. The context is checked up front;
// net/smtp itself does not support cancellation mid-dialogue.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("mail: recipient is required")
	}

	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}
