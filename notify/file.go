package notify

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// FileSender appends rendered messages to a file instead of sending them.
type FileSender struct {
	mu   sync.Mutex
	opts EmailOptions
	now  func() time.Time
}

func NewFileSender(opts EmailOptions) *FileSender {
	return &FileSender{opts: opts, now: time.Now}
}

func (f *FileSender) SendEmail(ctx context.Context, body, recipient, subject string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, _, err := render(f.opts.from(), recipient, subject, body, f.now())
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.opts.DevelopmentFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create mail directory")
		}
	}
	file, err := os.OpenFile(f.opts.DevelopmentFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return errors.Wrap(err, "open mail file")
	}
	defer file.Close()

	if _, err := file.Write(append(msg, "\r\n"...)); err != nil {
		return errors.Wrap(err, "write mail file")
	}
	return nil
}
