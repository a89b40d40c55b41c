package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

func (c SmtpConfig) Configured() bool {
	return c.Server != "" && c.EmailAddress != ""
}

// Send delivers a plain-text message. Some relays reject AUTH when none
// is configured, so an unauthenticated delivery is attempted as a
// fallback.
func Send(config SmtpConfig, to []string, subject, body string) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("QA Replay <%s>", config.EmailAddress)
	mail.To = to
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", config.Server, config.Port)
	err := mail.Send(addr, smtp.PlainAuth("", config.EmailAddress, config.Password, config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}
	return nil
}
