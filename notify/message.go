package notify

import (
	"bytes"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidHeader is returned when a recipient or subject could alter the
// message headers.
var ErrInvalidHeader = errors.New("notify: invalid header value")

// render builds a plain-text RFC 5322 message.
func render(from *mail.Address, recipient, subject, body string, now time.Time) ([]byte, *mail.Address, error) {
	if strings.ContainsAny(subject, "\r\n") {
		return nil, nil, ErrInvalidHeader
	}
	to, err := mail.ParseAddress(recipient)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrInvalidHeader, "recipient %q: %v", recipient, err)
	}

	var buf bytes.Buffer
	header := func(k, v string) {
		buf.WriteString(k)
		buf.WriteString(": ")
		buf.WriteString(v)
		buf.WriteString("\r\n")
	}
	header("From", from.String())
	header("To", to.String())
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	buf.WriteString("\r\n")
	return buf.Bytes(), to, nil
}
