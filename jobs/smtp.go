package jobs

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender delivers emails through a plain SMTP relay such as the local
// Mailpit instance used in development.
type SMTPSender struct {
	Addr string
	From string
}

// Send delivers one message. The relay handles retries and delivery errors
// beyond the initial handshake.
func (s SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if s.Addr == "" {
		return fmt.Errorf("smtp: relay address not configured")
	}
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(s.Addr, nil, s.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", to, err)
	}
	return nil
}
