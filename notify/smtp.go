package notify

import (
	"context"
	"net/smtp"
	"time"

	"github.com/pkg/errors"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender submits mail through an SMTP relay. net/smtp upgrades to TLS
// when the server offers STARTTLS.
type SMTPSender struct {
	opts     EmailOptions
	sendMail sendMailFunc
	now      func() time.Time
}

func NewSMTPSender(opts EmailOptions) *SMTPSender {
	return &SMTPSender{opts: opts, sendMail: smtp.SendMail, now: time.Now}
}

// SendEmail renders and submits one message. net/smtp has no context support,
// so ctx is only checked before dialing.
func (s *SMTPSender) SendEmail(ctx context.Context, body, recipient, subject string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from := s.opts.from()
	msg, to, err := render(from, recipient, subject, body, s.now())
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.opts.Username != "" {
		auth = smtp.PlainAuth("", s.opts.Username, s.opts.Password, s.opts.Host)
	}
	if err := s.sendMail(s.opts.addr(), auth, from.Address, []string{to.Address}, msg); err != nil {
		return errors.Wrapf(err, "smtp send to %s", s.opts.addr())
	}
	return nil
}
