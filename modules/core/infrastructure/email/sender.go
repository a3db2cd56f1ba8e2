package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/flowcrm/flowcrm/pkg/configuration"
)

// Sender dispatches account e-mails. Implementations must not block beyond
// the request; a failed send surfaces to the caller once, no retries.
type Sender interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// NewSender returns the SMTP sender when mail is configured, otherwise a
// sender that only logs the reset link so local setups keep working.
func NewSender(conf *configuration.Configuration, log *logrus.Logger) Sender {
	if conf.SMTP.Configured() {
		return &smtpSender{conf: conf}
	}
	return &logSender{log: log}
}

type smtpSender struct {
	conf *configuration.Configuration
}

func (s *smtpSender) SendPasswordReset(_ context.Context, to, resetURL string) error {
	opts := s.conf.SMTP
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Password reset - FlowCRM\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n"+
			"<p>You requested a FlowCRM password change.</p>"+
			"<p>Follow the link below to set a new password. The link expires in 60 minutes.</p>"+
			"<p><a href=%q>%s</a></p>"+
			"<p>If you did not request this, ignore this e-mail.</p>\r\n",
		opts.From, to, resetURL, resetURL,
	)

	addr := opts.Host + ":" + opts.Port
	var auth smtp.Auth
	if opts.Username != "" {
		auth = smtp.PlainAuth("", opts.Username, opts.Password, opts.Host)
	}
	return smtp.SendMail(addr, auth, opts.From, []string{to}, []byte(msg))
}

type logSender struct {
	log *logrus.Logger
}

func (s *logSender) SendPasswordReset(_ context.Context, to, resetURL string) error {
	s.log.WithFields(logrus.Fields{
		"to":  to,
		"url": resetURL,
	}).Warn("mail configuration missing; password reset e-mail not sent")
	return nil
}
