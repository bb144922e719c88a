package goAccount

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/internal/limiters"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/principal"
	"github.com/MrEthical07/goAccount/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder can be built once.
type Builder struct {
	config    Config
	redis     *redis.Client
	repo      AccountRepository
	email     EmailSender
	auditSink AuditSink
	logger    *slog.Logger
	enrichers []principal.Enricher
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRepository sets the account repository. Required.
func (b *Builder) WithRepository(repo AccountRepository) *Builder {
	b.repo = repo
	return b
}

// WithEmailSender sets the notification sender. Required.
func (b *Builder) WithEmailSender(sender EmailSender) *Builder {
	b.email = sender
	return b
}

// WithRedis sets the client backing the two-factor and email request limiters.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the audit destination. Auditing still has to be enabled in Config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the operational logger. The default discards records.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClaimsEnricher appends a function that adds claims to application principals.
func (b *Builder) WithClaimsEnricher(enricher principal.Enricher) *Builder {
	if enricher != nil {
		b.enrichers = append(b.enrichers, enricher)
	}
	return b
}

// WithClock overrides the clock used for tokens, codes and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the stamp-validation latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.repo == nil {
		return nil, errors.New("account repository required")
	}
	if b.email == nil {
		return nil, errors.New("email sender required")
	}
	if cfg.TwoFactorLimiter.Enabled && b.redis == nil {
		return nil, errors.New("TwoFactorLimiter requires redis client")
	}
	if cfg.PasswordResetLimiter.Enabled && b.redis == nil {
		return nil, errors.New("PasswordResetLimiter requires redis client")
	}
	if cfg.ConfirmationLimiter.Enabled && b.redis == nil {
		return nil, errors.New("ConfirmationLimiter requires redis client")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	signer, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.Tokens.SigningMethod),
		PrivateKey:    cfg.Tokens.PrivateKey,
		PublicKey:     cfg.Tokens.PublicKey,
		Issuer:        cfg.Tokens.Issuer,
		Now:           now,
	})
	if err != nil {
		return nil, fmt.Errorf("token signer: %w", err)
	}
	protector, err := token.NewProtectorProvider(signer, cfg.Tokens.ProtectorTTL)
	if err != nil {
		return nil, err
	}
	codes, err := token.NewTOTPProvider(token.TOTPConfig{
		Digits:    cfg.Tokens.TOTPDigits,
		Period:    cfg.Tokens.TOTPPeriod,
		Algorithm: cfg.Tokens.TOTPAlgorithm,
		Pepper:    cfg.Tokens.TOTPPepper,
		Now:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("totp provider: %w", err)
	}
	registry, err := token.NewRegistry(cfg.Tokens.Purposes, protector, codes)
	if err != nil {
		return nil, err
	}

	principals, err := principal.NewBuilder(principal.Options{
		AccountIDClaimType:     cfg.Claims.AccountID,
		SecurityStampClaimType: cfg.Claims.SecurityStamp,
		EmailClaimType:         cfg.Claims.Email,
		ApplicationScheme:      cfg.Schemes.Application,
	}, b.enrichers...)
	if err != nil {
		return nil, err
	}

	var limiter *limiters.TwoFactor
	if cfg.TwoFactorLimiter.Enabled {
		limiter = limiters.NewTwoFactor(b.redis, limiters.TwoFactorConfig{
			MaxAttempts: cfg.TwoFactorLimiter.MaxAttempts,
			Cooldown:    cfg.TwoFactorLimiter.Cooldown,
		})
	}

	resets := newRequestLimiter(b.redis, limiters.PasswordResetPrefix, cfg.PasswordResetLimiter)
	confirms := newRequestLimiter(b.redis, limiters.ConfirmationPrefix, cfg.ConfirmationLimiter)

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b.built = true

	return &Engine{
		config:     cfg,
		repo:       b.repo,
		email:      b.email,
		tokens:     registry,
		principals: principals,
		limiter:    limiter,
		resets:     resets,
		confirms:   confirms,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger.With("component", "goaccount"),
		now:     now,
	}, nil
}

func newRequestLimiter(client *redis.Client, prefix string, cfg RequestLimiterConfig) *limiters.Requests {
	if !cfg.Enabled {
		return nil
	}
	return limiters.NewRequests(client, prefix, limiters.RequestConfig{
		MaxRequests: cfg.MaxRequests,
		Window:      cfg.Window,
		ThrottleIP:  cfg.ThrottleIP,
	})
}
