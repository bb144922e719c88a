package goAccount

import (
	"context"
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/principal"
	"github.com/MrEthical07/goAccount/session"
	"github.com/MrEthical07/goAccount/token"
)

// Account is the security-relevant view of a stored account.
//
// SecurityStamp is an opaque value the repository regenerates whenever the
// password hash, email or two-factor flag changes.
type Account struct {
	ID               int64
	Email            string
	PasswordHash     string
	TwoFactorEnabled bool
	EmailConfirmed   bool
	SecurityStamp    string
}

func (a *Account) subject() token.Subject {
	return token.Subject{ID: a.ID, SecurityStamp: a.SecurityStamp}
}

func (a *Account) identity() principal.Identity {
	return principal.Identity{AccountID: a.ID, Email: a.Email, SecurityStamp: a.SecurityStamp}
}

// AccountRepository owns account storage and password hashing.
//
// Lookups return [ErrAccountNotFound] when nothing matches, including a wrong
// password in GetAccountByEmailAndPassword. CreateAccount returns
// [ErrDuplicateEmail] when the email is taken. Update methods return false
// without an error when the account does not exist, and must rotate the
// security stamp whenever they change credentials or security settings.
// Implementations must offer read-your-writes consistency for the stamp.
type AccountRepository interface {
	GetAccountByEmailAndPassword(ctx context.Context, email, password string) (*Account, error)
	GetAccount(ctx context.Context, id int64) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	CreateAccount(ctx context.Context, email, password string) (*Account, error)
	UpdateAccountEmailConfirmed(ctx context.Context, id int64) (bool, error)
	UpdateAccountPasswordHash(ctx context.Context, id int64, password string) (bool, error)
	UpdateAccountTwoFactorEnabled(ctx context.Context, id int64, enabled bool) (bool, error)
}

// EmailSender delivers a notification. Delivery is not retried by the engine.
type EmailSender interface {
	SendEmail(ctx context.Context, body, recipient, subject string) error
}

// Session is the per-user-agent transport for principals, one slot per scheme.
//
// Authenticate returns nil when the scheme holds no valid principal.
type Session interface {
	SignIn(ctx context.Context, scheme string, p *principal.Principal, props SignInProperties) error
	SignOut(ctx context.Context, scheme string) error
	Authenticate(ctx context.Context, scheme string) (*principal.Principal, error)
}

// SignInProperties control persistence of an application sign-in.
type SignInProperties = session.Properties

// sessionProperties is implemented by transports that can report how an
// existing principal was persisted.
type sessionProperties interface {
	Properties(ctx context.Context, scheme string) (session.Properties, bool)
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink discards audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink delivers audit events to a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per audit event.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink writes audit events as structured log records.
type SlogSink = internalaudit.SlogSink

// NewChannelSink returns a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink returns a [SlogSink] logging to logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
